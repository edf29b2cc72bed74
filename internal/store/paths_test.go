package store

import (
	"path/filepath"
	"testing"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLayout_ExpandsHomeShortcut(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	layout, err := ResolveLayout("default", "~/.lectern/workspaces")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".lectern", "workspaces", "default"), layout.Base)
}

func TestResolveLayout_DefaultsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	layout, err := ResolveLayout("default", "  ")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".lectern", "workspaces", "default"), layout.Base)
}

func TestLayoutFiles(t *testing.T) {
	root := t.TempDir()
	layout, err := ResolveLayout("ws", root)
	require.NoError(t, err)

	base := filepath.Join(root, "ws")
	assert.Equal(t, filepath.Join(base, "workspace.lock"), layout.LockFile())
	assert.Equal(t, filepath.Join(base, "sessions", "index.json"), layout.SessionIndex())
	assert.Equal(t, filepath.Join(base, "courses", "index.json"), layout.CourseIndex())
	assert.Equal(t, filepath.Join(base, "sessions", "session_1.jsonl"), layout.Transcript("session_1"))
	assert.Len(t, layout.Dirs(), 3)
}

func TestValidateID(t *testing.T) {
	for _, id := range []string{"", "  ", ".", "..", "../etc", `a\b`, "a/b"} {
		err := ValidateID(id)
		assert.ErrorIs(t, err, lecternErrors.ErrInvalidInput, "id %q", id)
	}
	assert.NoError(t, ValidateID("session_01HZY"))

	_, err := ResolveLayout("../escape", t.TempDir())
	assert.ErrorIs(t, err, lecternErrors.ErrInvalidInput)
}
