package runtime

import (
	"context"
	"testing"

	"github.com/harunnryd/lectern/internal/config"
	lecternErrors "github.com/harunnryd/lectern/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{WorkspacePath: t.TempDir()},
		Models: config.ModelsConfig{
			Default:   "local",
			Embedding: "local",
			Registry: []config.ModelRegistry{
				{Name: "local", Provider: "ollama", Model: "llama3.1"},
			},
		},
	}
}

func TestBuilder_RequiresConfig(t *testing.T) {
	_, err := NewRuntimeBuilder().WithContext(context.Background()).Build()
	assert.Error(t, err)
}

func TestBuilder_RejectsUnsafeWorkspace(t *testing.T) {
	_, err := NewRuntimeBuilder().WithConfig(testConfig(t)).WithWorkspace("../other").Build()
	assert.ErrorIs(t, err, lecternErrors.ErrInvalidInput)
}

func TestBuilder_DefaultWorkspace(t *testing.T) {
	components, err := NewRuntimeBuilder().WithConfig(testConfig(t)).Build()
	require.NoError(t, err)
	defer components.Stop()

	assert.Equal(t, DefaultWorkspaceID, components.WorkspaceID)
	assert.NotNil(t, components.Assistant)
}

func TestBuilder_NamedWorkspace(t *testing.T) {
	cfg := testConfig(t)
	components, err := NewRuntimeBuilder().
		WithContext(context.Background()).
		WithConfig(cfg).
		WithWorkspace("physics-101").
		Build()
	require.NoError(t, err)
	defer components.Stop()

	assert.Equal(t, "physics-101", components.WorkspaceID)
	assert.Contains(t, components.StoreWorker.BasePath(), "physics-101")
}
