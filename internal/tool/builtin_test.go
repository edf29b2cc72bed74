package tool_test

import (
	"testing"

	"github.com/harunnryd/lectern/internal/tool"
	_ "github.com/harunnryd/lectern/internal/tool/builtin"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinNames_DeterministicAndComplete(t *testing.T) {
	names := tool.BuiltinNames()
	require.NotEmpty(t, names)

	assert.Equal(t, []string{
		"get_course_outline",
		"search_course_content",
	}, names)
}

func TestRegisterBuiltin_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		tool.RegisterBuiltin("search_course_content", func(options tool.BuiltinOptions) (tool.Tool, error) {
			return nil, nil
		})
	})
}
