package retrieval

import (
	"context"
)

// Filter narrows a content search. Zero values mean no filter.
type Filter struct {
	CourseName   string
	LessonNumber *int
}

type Metadata struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
}

// ResultSet holds parallel slices of hits, or a terminal error message.
// An error-free empty set is a valid "nothing matched" answer.
type ResultSet struct {
	Documents []string
	Metadata  []Metadata
	Distances []float32
	Error     string
}

// Failed returns a result set carrying only an error message.
func Failed(msg string) ResultSet {
	return ResultSet{Error: msg}
}

// Append adds one hit, keeping the slices parallel.
func (r *ResultSet) Append(doc string, meta Metadata, distance float32) {
	r.Documents = append(r.Documents, doc)
	r.Metadata = append(r.Metadata, meta)
	r.Distances = append(r.Distances, distance)
}

func (r ResultSet) Len() int {
	return len(r.Documents)
}

func (r ResultSet) IsEmpty() bool {
	return r.Error == "" && len(r.Documents) == 0
}

type Lesson struct {
	Number int    `json:"number" yaml:"number"`
	Title  string `json:"title" yaml:"title"`
	Link   string `json:"link,omitempty" yaml:"link"`
}

type Course struct {
	Title      string   `json:"title" yaml:"title"`
	Link       string   `json:"link,omitempty" yaml:"link"`
	Instructor string   `json:"instructor,omitempty" yaml:"instructor"`
	Lessons    []Lesson `json:"lessons" yaml:"lessons"`
}

// Lesson returns the lesson with the given number.
func (c *Course) Lesson(number int) (Lesson, bool) {
	for _, l := range c.Lessons {
		if l.Number == number {
			return l, true
		}
	}
	return Lesson{}, false
}

type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// Backend answers similarity searches and course lookups.
type Backend interface {
	Search(ctx context.Context, query string, filter Filter) (ResultSet, error)
	// ResolveCourse finds the course whose title best matches name.
	// It returns an ErrNotFound error when no course matches.
	ResolveCourse(ctx context.Context, name string) (*Course, error)
	// LessonLink returns the lesson's link, or "" when it has none.
	LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error)
	Analytics(ctx context.Context) (Analytics, error)
}
