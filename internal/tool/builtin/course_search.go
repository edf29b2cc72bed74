package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/harunnryd/lectern/internal/logger"
	"github.com/harunnryd/lectern/internal/model/contract"
	"github.com/harunnryd/lectern/internal/retrieval"
	toolcore "github.com/harunnryd/lectern/internal/tool"
)

const CourseSearchToolName = "search_course_content"

func init() {
	toolcore.RegisterBuiltin(CourseSearchToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return NewCourseSearchTool(options.Backend), nil
	})
}

// CourseSearchTool runs similarity search over lesson content.
type CourseSearchTool struct {
	backend retrieval.Backend
}

func NewCourseSearchTool(backend retrieval.Backend) *CourseSearchTool {
	return &CourseSearchTool{backend: backend}
}

func (t *CourseSearchTool) Definition() contract.ToolDef {
	return contract.ToolDef{
		Name:        CourseSearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: contract.InputSchema{
			Properties: map[string]contract.Property{
				"query": {
					Type:        "string",
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
		Delivery: contract.DeliverySynthesize,
	}
}

type courseSearchInput struct {
	Query        string   `json:"query"`
	CourseName   string   `json:"course_name"`
	LessonNumber *float64 `json:"lesson_number"`
}

func (t *CourseSearchTool) Execute(ctx context.Context, input json.RawMessage) (toolcore.Output, error) {
	var args courseSearchInput
	if err := json.Unmarshal(input, &args); err != nil {
		return toolcore.Output{}, fmt.Errorf("invalid input: %w", err)
	}

	filter := retrieval.Filter{CourseName: strings.TrimSpace(args.CourseName)}
	if args.LessonNumber != nil {
		v := *args.LessonNumber
		// no stored lesson can carry a number outside the int range
		if v >= float64(math.MaxInt) || v < float64(math.MinInt) {
			return toolcore.Output{Text: strings.TrimSuffix(noResultsMessage(filter), ".") +
				fmt.Sprintf(" in lesson %g.", v)}, nil
		}
		n := int(v)
		filter.LessonNumber = &n
	}

	results, err := t.backend.Search(ctx, args.Query, filter)
	if err != nil {
		return toolcore.Output{}, err
	}

	if results.Error != "" {
		return toolcore.Output{Text: results.Error}, nil
	}

	if results.Len() == 0 {
		return toolcore.Output{Text: noResultsMessage(filter)}, nil
	}

	return t.format(ctx, results), nil
}

func noResultsMessage(filter retrieval.Filter) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if filter.CourseName != "" {
		fmt.Fprintf(&b, " in course '%s'", filter.CourseName)
	}
	if filter.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *filter.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}

func (t *CourseSearchTool) format(ctx context.Context, results retrieval.ResultSet) toolcore.Output {
	blocks := make([]string, 0, results.Len())
	sources := make([]toolcore.Source, 0, results.Len())

	for i, doc := range results.Documents {
		meta := results.Metadata[i]
		title := meta.CourseTitle
		if title == "" {
			title = "unknown"
		}

		label := title
		if meta.LessonNumber != nil {
			label = fmt.Sprintf("%s - Lesson %d", title, *meta.LessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, doc))

		source := toolcore.Source{Label: label}
		if meta.LessonNumber != nil {
			link, err := t.backend.LessonLink(ctx, meta.CourseTitle, *meta.LessonNumber)
			if err != nil {
				slog.Warn("Lesson link lookup failed", "course", meta.CourseTitle, "lesson", *meta.LessonNumber, "error", err, "trace_id", logger.GetTraceID(ctx))
			}
			source.Link = link
		}
		sources = append(sources, source)
	}

	return toolcore.Output{
		Text:    strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}
