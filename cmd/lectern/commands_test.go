package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/harunnryd/lectern/internal/orchestrator"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/store"
	"github.com/harunnryd/lectern/internal/tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	answer    *orchestrator.Answer
	err       error
	gotQuery  string
	gotSessID string
}

func (f *fakeQuerier) Query(ctx context.Context, query string, sessionID string) (*orchestrator.Answer, error) {
	f.gotQuery = query
	f.gotSessID = sessionID
	return f.answer, f.err
}

func TestRunAsk_PrintsAnswerAndSources(t *testing.T) {
	q := &fakeQuerier{answer: &orchestrator.Answer{
		Text:    "MCP connects clients to servers.",
		Sources: []tool.Source{{Label: "Intro to MCP - Lesson 1", Link: "https://example.com/mcp/1"}},
	}}
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), q, &out, "what is mcp?", "session_1"))

	assert.Equal(t, "what is mcp?", q.gotQuery)
	assert.Equal(t, "session_1", q.gotSessID)
	assert.Contains(t, out.String(), "MCP connects clients to servers.")
	assert.Contains(t, out.String(), "1. Intro to MCP - Lesson 1 (https://example.com/mcp/1)")
}

func TestRunAsk_NoSourcesSection(t *testing.T) {
	q := &fakeQuerier{answer: &orchestrator.Answer{Text: "Hello."}}
	var out bytes.Buffer

	require.NoError(t, runAsk(context.Background(), q, &out, "hi", ""))
	assert.Equal(t, "Hello.\n", out.String())
}

func TestRunAsk_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	var out bytes.Buffer

	err := runAsk(context.Background(), &fakeQuerier{err: boom}, &out, "hi", "")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, out.String())
}

type fakeIngestor struct {
	report retrieval.IngestReport
	err    error
	paths  []string
}

func (f *fakeIngestor) IngestPaths(ctx context.Context, paths ...string) (retrieval.IngestReport, error) {
	f.paths = paths
	return f.report, f.err
}

func TestRunIngest_ReportsAddedAndSkipped(t *testing.T) {
	in := &fakeIngestor{report: retrieval.IngestReport{
		Added:   []string{"Intro to MCP"},
		Skipped: []string{"Advanced Retrieval"},
		Chunks:  3,
	}}
	var out bytes.Buffer

	require.NoError(t, runIngest(context.Background(), in, &out, []string{"docs/"}))

	assert.Equal(t, []string{"docs/"}, in.paths)
	assert.Contains(t, out.String(), "Added 'Intro to MCP'")
	assert.Contains(t, out.String(), "Skipped 'Advanced Retrieval'")
	assert.Contains(t, out.String(), "Ingested 1 course(s), 3 chunk(s).")
}

func TestRunIngest_PartialFailureStillReports(t *testing.T) {
	in := &fakeIngestor{
		report: retrieval.IngestReport{Added: []string{"Intro to MCP"}},
		err:    errors.New("ingest bad.yaml: invalid"),
	}
	var out bytes.Buffer

	err := runIngest(context.Background(), in, &out, []string{"docs/"})
	require.Error(t, err)
	assert.Contains(t, out.String(), "Added 'Intro to MCP'")
	assert.NotContains(t, out.String(), "Ingested")
}

type fakeCatalog struct {
	stats   retrieval.Analytics
	courses []store.CourseRecord
}

func (f *fakeCatalog) Courses(ctx context.Context) (retrieval.Analytics, error) {
	return f.stats, nil
}

func (f *fakeCatalog) ListCourses() ([]store.CourseRecord, error) {
	return f.courses, nil
}

func TestRunCourses(t *testing.T) {
	t.Run("empty catalog", func(t *testing.T) {
		var out bytes.Buffer
		c := &fakeCatalog{}
		require.NoError(t, runCourses(context.Background(), c, c, &out))
		assert.Contains(t, out.String(), "No courses indexed yet.")
	})

	t.Run("with courses", func(t *testing.T) {
		var out bytes.Buffer
		c := &fakeCatalog{
			stats:   retrieval.Analytics{TotalCourses: 1, CourseTitles: []string{"Intro to MCP"}},
			courses: []store.CourseRecord{{Title: "Intro to MCP", Instructor: "Ada", Chunks: 3}},
		}
		require.NoError(t, runCourses(context.Background(), c, c, &out))
		assert.Contains(t, out.String(), "Intro to MCP")
		assert.Contains(t, out.String(), "Total: 1 course(s)")
	})
}
