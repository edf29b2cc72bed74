package runtime

import (
	"context"
	"testing"
)

func TestNewRuntimeComponents(t *testing.T) {
	cfg := testConfig(t)
	workspaceID := "test-workspace-" + t.Name()

	components, err := NewRuntimeComponents(context.Background(), cfg, workspaceID)
	if err != nil {
		t.Fatalf("NewRuntimeComponents() failed: %v", err)
	}
	defer components.Stop()

	if components.WorkspaceID != workspaceID {
		t.Errorf("WorkspaceID = %v, want %v", components.WorkspaceID, workspaceID)
	}
	if components.StoreWorker == nil || !components.StoreWorker.IsRunning() {
		t.Error("StoreWorker is not running")
	}
	if components.Router == nil || components.Backend == nil || components.Ingestor == nil {
		t.Error("model and retrieval components must be set")
	}
	if components.ToolRegistry == nil || len(components.ToolRegistry.Names()) != 2 {
		t.Error("expected the two built-in tools to be registered")
	}
	if components.Sessions == nil || components.Assistant == nil {
		t.Error("session manager and assistant must be set")
	}
}

func TestRuntimeComponents_StopReleasesWorkspace(t *testing.T) {
	cfg := testConfig(t)

	first, err := NewRuntimeComponents(context.Background(), cfg, "shared")
	if err != nil {
		t.Fatalf("first NewRuntimeComponents() failed: %v", err)
	}
	first.Stop()

	if first.Ctx.Err() == nil {
		t.Error("Stop() should cancel the runtime context")
	}

	second, err := NewRuntimeComponents(context.Background(), cfg, "shared")
	if err != nil {
		t.Fatalf("second NewRuntimeComponents() failed: %v", err)
	}
	second.Stop()
}
