package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/model/contract"
	"github.com/harunnryd/lectern/internal/retrieval"
	toolcore "github.com/harunnryd/lectern/internal/tool"
)

const CourseOutlineToolName = "get_course_outline"

func init() {
	toolcore.RegisterBuiltin(CourseOutlineToolName, func(options toolcore.BuiltinOptions) (toolcore.Tool, error) {
		return NewCourseOutlineTool(options.Backend), nil
	})
}

// CourseOutlineTool returns a course's lesson list, shown to the user as is.
type CourseOutlineTool struct {
	backend retrieval.Backend
}

func NewCourseOutlineTool(backend retrieval.Backend) *CourseOutlineTool {
	return &CourseOutlineTool{backend: backend}
}

func (t *CourseOutlineTool) Definition() contract.ToolDef {
	return contract.ToolDef{
		Name:        CourseOutlineToolName,
		Description: "Get the complete outline of a course: title, link and the numbered list of lessons",
		InputSchema: contract.InputSchema{
			Properties: map[string]contract.Property{
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			Required: []string{"course_name"},
		},
		Delivery: contract.DeliveryPassThrough,
	}
}

func (t *CourseOutlineTool) Execute(ctx context.Context, input json.RawMessage) (toolcore.Output, error) {
	var args struct {
		CourseName string `json:"course_name"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return toolcore.Output{}, fmt.Errorf("invalid input: %w", err)
	}

	course, err := t.backend.ResolveCourse(ctx, args.CourseName)
	if err != nil {
		if lecternErrors.IsCategory(err, lecternErrors.ErrNotFound) {
			return toolcore.Output{Text: fmt.Sprintf("No course found matching '%s'", args.CourseName)}, nil
		}
		return toolcore.Output{}, err
	}

	return toolcore.Output{
		Text:    FormatOutline(course),
		Sources: []toolcore.Source{{Label: course.Title, Link: course.Link}},
	}, nil
}

// FormatOutline renders a course and its lessons as plain text.
func FormatOutline(course *retrieval.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Course: %s\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course Link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}

	fmt.Fprintf(&b, "\nLessons (%d total):", len(course.Lessons))
	for _, lesson := range course.Lessons {
		fmt.Fprintf(&b, "\nLesson %d: %s", lesson.Number, lesson.Title)
	}
	return b.String()
}
