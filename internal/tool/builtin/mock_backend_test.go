package builtin

import (
	"context"

	"github.com/harunnryd/lectern/internal/retrieval"

	"github.com/stretchr/testify/mock"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Search(ctx context.Context, query string, filter retrieval.Filter) (retrieval.ResultSet, error) {
	args := m.Called(ctx, query, filter)
	return args.Get(0).(retrieval.ResultSet), args.Error(1)
}

func (m *MockBackend) ResolveCourse(ctx context.Context, name string) (*retrieval.Course, error) {
	args := m.Called(ctx, name)
	course, _ := args.Get(0).(*retrieval.Course)
	return course, args.Error(1)
}

func (m *MockBackend) LessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, error) {
	args := m.Called(ctx, courseTitle, lessonNumber)
	return args.String(0), args.Error(1)
}

func (m *MockBackend) Analytics(ctx context.Context) (retrieval.Analytics, error) {
	args := m.Called(ctx)
	return args.Get(0).(retrieval.Analytics), args.Error(1)
}

func intPtr(n int) *int { return &n }

func validResults(n int) retrieval.ResultSet {
	var rs retrieval.ResultSet
	for i := 0; i < n; i++ {
		rs.Append(
			"Content about topic "+string(rune('0'+i)),
			retrieval.Metadata{CourseTitle: "Course " + string(rune('0'+i)), LessonNumber: intPtr(i + 1), ChunkIndex: i},
			0.1*float32(i+1),
		)
	}
	return rs
}
