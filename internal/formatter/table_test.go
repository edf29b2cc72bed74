package formatter

import (
	"testing"
	"time"

	"github.com/harunnryd/lectern/internal/store"
	"github.com/harunnryd/lectern/internal/tool"

	"github.com/stretchr/testify/assert"
)

func TestFormatCourses(t *testing.T) {
	f := NewTableFormatter()

	assert.Equal(t, "No courses found", f.FormatCourses(nil))

	out := f.FormatCourses([]store.CourseRecord{
		{Title: "Intro to MCP", Instructor: "Ada", Lessons: []store.LessonRecord{{Number: 0}, {Number: 1}}, Chunks: 7},
	})
	assert.Contains(t, out, "Intro to MCP")
	assert.Contains(t, out, "Ada")
	assert.Contains(t, out, "Instructor")
}

func TestFormatSessions(t *testing.T) {
	f := NewTableFormatter()

	assert.Equal(t, "No sessions found", f.FormatSessions(nil))

	out := f.FormatSessions([]store.SessionMeta{{ID: "session_01", Title: "What is MCP?", Exchanges: 3, UpdatedAt: time.Now()}})
	assert.Contains(t, out, "session_01")
	assert.Contains(t, out, "What is MCP?")
}

func TestFormatSources(t *testing.T) {
	assert.Equal(t, "No sources", FormatSources(nil))
	assert.Equal(t,
		"1. MCP - Lesson 1 (https://example.com/1)\n2. MCP - Lesson 2",
		FormatSources([]tool.Source{
			{Label: "MCP - Lesson 1", Link: "https://example.com/1"},
			{Label: "MCP - Lesson 2"},
		}),
	)
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}
