package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/harunnryd/lectern/internal/config"
	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/store"
)

// Metadata keys stored on content and catalog vectors.
const (
	metaCourseTitle  = "course_title"
	metaLessonNumber = "lesson_number"
	metaChunkIndex   = "chunk_index"
	metaInstructor   = "instructor"
	metaCourseLink   = "course_link"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the persistence surface the vector backend needs.
type Store interface {
	UpsertVectors(ctx context.Context, collection string, docs []store.VectorDocument) error
	QueryVectors(ctx context.Context, q store.VectorQuery) ([]store.VectorResult, error)
	CountVectors(ctx context.Context, collection string) (int, error)
	SaveCourse(course store.CourseRecord) error
	GetCourse(title string) (*store.CourseRecord, error)
	ListCourses() ([]store.CourseRecord, error)
}

// VectorBackend answers searches from the workspace vector collections.
type VectorBackend struct {
	store    Store
	embedder Embedder
	cfg      config.RetrievalConfig
}

var _ Backend = (*VectorBackend)(nil)

func NewVectorBackend(s Store, embedder Embedder, cfg config.RetrievalConfig) *VectorBackend {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = config.DefaultRetrievalMaxResults
	}
	if strings.TrimSpace(cfg.CatalogCollection) == "" {
		cfg.CatalogCollection = config.DefaultRetrievalCatalogCollection
	}
	if strings.TrimSpace(cfg.ContentCollection) == "" {
		cfg.ContentCollection = config.DefaultRetrievalContentCollection
	}
	return &VectorBackend{store: s, embedder: embedder, cfg: cfg}
}

func (b *VectorBackend) Search(ctx context.Context, query string, filter Filter) (ResultSet, error) {
	where := map[string]string{}

	if name := strings.TrimSpace(filter.CourseName); name != "" {
		title, err := b.resolveTitle(ctx, name)
		if err != nil {
			return ResultSet{}, err
		}
		if title == "" {
			return Failed(fmt.Sprintf("No course found matching '%s'", name)), nil
		}
		where[metaCourseTitle] = title
	}
	if filter.LessonNumber != nil {
		where[metaLessonNumber] = strconv.Itoa(*filter.LessonNumber)
	}

	embedding, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := b.store.QueryVectors(ctx, store.VectorQuery{
		Collection: b.cfg.ContentCollection,
		Vector:     embedding,
		Limit:      b.cfg.MaxResults,
		Where:      where,
	})
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to search vectors: %w", err)
	}

	var results ResultSet
	for _, hit := range hits {
		results.Append(hit.Content, metadataFrom(hit.Metadata), 1-hit.Similarity)
	}

	slog.Debug("Content searched", "query", query, "where", where, "count", results.Len())
	return results, nil
}

// resolveTitle returns the catalog title nearest to name, or "" for an empty catalog.
func (b *VectorBackend) resolveTitle(ctx context.Context, name string) (string, error) {
	embedding, err := b.embedder.Embed(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to embed course name: %w", err)
	}

	hits, err := b.store.QueryVectors(ctx, store.VectorQuery{
		Collection: b.cfg.CatalogCollection,
		Vector:     embedding,
		Limit:      1,
	})
	if err != nil {
		return "", fmt.Errorf("failed to search catalog: %w", err)
	}
	if len(hits) == 0 {
		return "", nil
	}

	title := hits[0].Metadata[metaCourseTitle]
	if title == "" {
		title = hits[0].Content
	}
	return title, nil
}

func (b *VectorBackend) ResolveCourse(ctx context.Context, name string) (*Course, error) {
	title, err := b.resolveTitle(ctx, name)
	if err != nil {
		return nil, err
	}
	if title == "" {
		return nil, lecternErrors.NotFound(fmt.Sprintf("course %q", name))
	}

	record, err := b.store.GetCourse(title)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, lecternErrors.NotFound(fmt.Sprintf("course %q", title))
	}
	return courseFromRecord(*record), nil
}

func (b *VectorBackend) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	record, err := b.store.GetCourse(courseTitle)
	if err != nil || record == nil {
		return "", err
	}
	for _, l := range record.Lessons {
		if l.Number == lessonNumber {
			return l.Link, nil
		}
	}
	return "", nil
}

func (b *VectorBackend) Analytics(ctx context.Context) (Analytics, error) {
	records, err := b.store.ListCourses()
	if err != nil {
		return Analytics{}, err
	}

	titles := make([]string, 0, len(records))
	for _, r := range records {
		titles = append(titles, r.Title)
	}
	return Analytics{TotalCourses: len(titles), CourseTitles: titles}, nil
}

func metadataFrom(m map[string]string) Metadata {
	meta := Metadata{CourseTitle: m[metaCourseTitle]}
	if raw, ok := m[metaLessonNumber]; ok {
		if n, err := strconv.Atoi(raw); err == nil {
			meta.LessonNumber = &n
		}
	}
	if raw, ok := m[metaChunkIndex]; ok {
		meta.ChunkIndex, _ = strconv.Atoi(raw)
	}
	return meta
}

func courseFromRecord(r store.CourseRecord) *Course {
	course := &Course{
		Title:      r.Title,
		Link:       r.Link,
		Instructor: r.Instructor,
		Lessons:    make([]Lesson, 0, len(r.Lessons)),
	}
	for _, l := range r.Lessons {
		course.Lessons = append(course.Lessons, Lesson{Number: l.Number, Title: l.Title, Link: l.Link})
	}
	return course
}
