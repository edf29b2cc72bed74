package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/harunnryd/lectern/internal/config"
	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/pathutil"
	"github.com/harunnryd/lectern/internal/store"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// CourseFile is the on-disk course document.
type CourseFile struct {
	Title      string       `yaml:"title"`
	Link       string       `yaml:"link"`
	Instructor string       `yaml:"instructor"`
	Lessons    []LessonFile `yaml:"lessons"`
}

type LessonFile struct {
	Number int      `yaml:"number"`
	Title  string   `yaml:"title"`
	Link   string   `yaml:"link"`
	Chunks []string `yaml:"chunks"`
}

// LoadCourseFile parses and validates a course YAML file.
func LoadCourseFile(path string) (*CourseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cf CourseFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, lecternErrors.WrapWithCategory(err, "parse "+path, lecternErrors.ErrInvalidInput)
	}

	cf.Title = strings.TrimSpace(cf.Title)
	if cf.Title == "" {
		return nil, lecternErrors.InvalidInput(fmt.Sprintf("%s: course title is required", path))
	}

	seen := make(map[int]bool, len(cf.Lessons))
	for _, l := range cf.Lessons {
		if seen[l.Number] {
			return nil, lecternErrors.InvalidInput(fmt.Sprintf("%s: duplicate lesson number %d", path, l.Number))
		}
		seen[l.Number] = true
	}
	sort.SliceStable(cf.Lessons, func(i, j int) bool {
		return cf.Lessons[i].Number < cf.Lessons[j].Number
	})

	return &cf, nil
}

// IngestReport summarizes one ingest run.
type IngestReport struct {
	Added   []string
	Skipped []string
	Chunks  int
}

// Ingestor embeds course files into the workspace collections.
type Ingestor struct {
	store       Store
	embedder    Embedder
	cfg         config.RetrievalConfig
	concurrency int
}

func NewIngestor(s Store, embedder Embedder, cfg config.RetrievalConfig, concurrency int) *Ingestor {
	if concurrency <= 0 {
		concurrency = config.DefaultIngestConcurrency
	}
	if strings.TrimSpace(cfg.CatalogCollection) == "" {
		cfg.CatalogCollection = config.DefaultRetrievalCatalogCollection
	}
	if strings.TrimSpace(cfg.ContentCollection) == "" {
		cfg.ContentCollection = config.DefaultRetrievalContentCollection
	}
	return &Ingestor{store: s, embedder: embedder, cfg: cfg, concurrency: concurrency}
}

// IngestPaths loads every .yaml/.yml file under paths and ingests it.
func (in *Ingestor) IngestPaths(ctx context.Context, paths ...string) (IngestReport, error) {
	files, err := pathutil.ExpandFiles(paths, ".yaml", ".yml")
	if err != nil {
		return IngestReport{}, err
	}

	var report IngestReport
	for _, path := range files {
		cf, err := LoadCourseFile(path)
		if err != nil {
			return report, err
		}

		chunks, added, err := in.Ingest(ctx, cf)
		if err != nil {
			return report, fmt.Errorf("ingest %s: %w", path, err)
		}
		if !added {
			report.Skipped = append(report.Skipped, cf.Title)
			continue
		}
		report.Added = append(report.Added, cf.Title)
		report.Chunks += chunks
	}

	total, err := in.store.CountVectors(ctx, in.cfg.ContentCollection)
	if err == nil {
		slog.Info("Ingest complete", "added", len(report.Added), "skipped", len(report.Skipped), "chunks", report.Chunks, "total_chunks", total)
	}
	return report, nil
}

// Ingest stores one course. Courses whose title is already indexed are skipped.
func (in *Ingestor) Ingest(ctx context.Context, cf *CourseFile) (int, bool, error) {
	existing, err := in.store.GetCourse(cf.Title)
	if err != nil {
		return 0, false, err
	}
	if existing != nil {
		slog.Info("Course already ingested, skipping", "course", cf.Title)
		return 0, false, nil
	}

	docs := buildChunkDocuments(cf)
	if err := in.embedAll(ctx, docs); err != nil {
		return 0, false, err
	}
	if err := in.store.UpsertVectors(ctx, in.cfg.ContentCollection, docs); err != nil {
		return 0, false, fmt.Errorf("failed to upsert chunks: %w", err)
	}

	titleVec, err := in.embedder.Embed(ctx, cf.Title)
	if err != nil {
		return 0, false, fmt.Errorf("failed to embed course title: %w", err)
	}
	catalogDoc := store.VectorDocument{
		ID:     cf.Title,
		Vector: titleVec,
		Metadata: map[string]string{
			metaCourseTitle: cf.Title,
			metaCourseLink:  cf.Link,
			metaInstructor:  cf.Instructor,
		},
		Content: cf.Title,
	}
	if err := in.store.UpsertVectors(ctx, in.cfg.CatalogCollection, []store.VectorDocument{catalogDoc}); err != nil {
		return 0, false, fmt.Errorf("failed to upsert catalog entry: %w", err)
	}

	// The course index entry marks the course as ingested, so it goes last.
	record := store.CourseRecord{
		Title:      cf.Title,
		Link:       cf.Link,
		Instructor: cf.Instructor,
		Lessons:    make([]store.LessonRecord, 0, len(cf.Lessons)),
		Chunks:     len(docs),
		IngestedAt: time.Now().UTC(),
	}
	for _, l := range cf.Lessons {
		record.Lessons = append(record.Lessons, store.LessonRecord{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	if err := in.store.SaveCourse(record); err != nil {
		return 0, false, fmt.Errorf("failed to save course index: %w", err)
	}

	slog.Info("Course ingested", "course", cf.Title, "lessons", len(cf.Lessons), "chunks", len(docs))
	return len(docs), true, nil
}

func buildChunkDocuments(cf *CourseFile) []store.VectorDocument {
	var docs []store.VectorDocument
	index := 0
	for _, l := range cf.Lessons {
		for _, chunk := range l.Chunks {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			docs = append(docs, store.VectorDocument{
				ID: chunkID(cf.Title, index),
				Metadata: map[string]string{
					metaCourseTitle:  cf.Title,
					metaLessonNumber: strconv.Itoa(l.Number),
					metaChunkIndex:   strconv.Itoa(index),
				},
				Content: chunk,
			})
			index++
		}
	}
	return docs
}

// chunkID is stable across runs so re-ingesting after a partial failure
// overwrites the earlier chunks.
func chunkID(title string, index int) string {
	return title + "_" + strconv.Itoa(index)
}

func (in *Ingestor) embedAll(ctx context.Context, docs []store.VectorDocument) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.concurrency)

	for i := range docs {
		g.Go(func() error {
			vec, err := in.embedder.Embed(gctx, docs[i].Content)
			if err != nil {
				return fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			docs[i].Vector = vec
			return nil
		})
	}
	return g.Wait()
}
