package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand_HomeShortcut(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := Expand("~/.lectern/workspaces")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".lectern", "workspaces"), got)
}

func TestExpand_EnvVar(t *testing.T) {
	t.Setenv("LECTERN_PATH_TEST", "/tmp/lectern-path")

	got, err := Expand("$LECTERN_PATH_TEST/courses")
	require.NoError(t, err)
	assert.Equal(t, filepath.Clean("/tmp/lectern-path/courses"), got)
}

func TestExpand_Empty(t *testing.T) {
	got, err := Expand("   ")
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestExpandFiles_WalksDirectoriesAndFiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "nested")
	require.NoError(t, os.MkdirAll(nested, 0755))

	for _, name := range []string{"a.yaml", "b.YML", "notes.txt", filepath.Join("nested", "c.yaml")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("title: x"), 0644))
	}
	single := filepath.Join(dir, "notes.txt")

	files, err := ExpandFiles([]string{dir, single}, ".yaml", ".yml")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.yaml"),
		filepath.Join(dir, "b.YML"),
		filepath.Join(nested, "c.yaml"),
		single,
	}, files)
}

func TestExpandFiles_MissingPath(t *testing.T) {
	_, err := ExpandFiles([]string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
