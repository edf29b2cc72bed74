package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSession(t *testing.T, root, workspaceID, sessionID string) {
	t.Helper()
	w, err := store.NewWorker(workspaceID, root, store.RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	defer w.Stop()

	now := time.Now().UTC()
	require.NoError(t, w.SaveSession(store.SessionMeta{ID: sessionID, Title: "what is mcp?", Exchanges: 1, CreatedAt: now, UpdatedAt: now}))
	require.NoError(t, w.WriteTranscript(sessionID, []byte(`{"role":"user","content":"what is mcp?"}`)))
}

func TestListSessions(t *testing.T) {
	t.Run("without sessions", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, listSessions(&out, "empty-ws", t.TempDir()))
		assert.Contains(t, out.String(), "No sessions found.")
	})

	t.Run("with sessions", func(t *testing.T) {
		root := t.TempDir()
		seedSession(t, root, "ws", "session_abc")

		var out bytes.Buffer
		require.NoError(t, listSessions(&out, "ws", root))
		assert.Contains(t, out.String(), "session_abc")
		assert.Contains(t, out.String(), "Total: 1 session(s)")
	})
}

func TestResetSession(t *testing.T) {
	root := t.TempDir()
	seedSession(t, root, "ws", "session_abc")

	var out bytes.Buffer
	require.NoError(t, resetSession(&out, "ws", root, config.StoreConfig{}, "session_abc"))
	assert.Contains(t, out.String(), "Session 'session_abc' reset successfully.")

	sessions, err := store.ReadSessions("ws", root)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestResetSession_FailsWhenWorkspaceLocked(t *testing.T) {
	root := t.TempDir()
	holder, err := store.NewWorker("ws", root, store.RuntimeConfig{})
	require.NoError(t, err)
	holder.Start()
	defer holder.Stop()

	var out bytes.Buffer
	err = resetSession(&out, "ws", root, config.StoreConfig{}, "session_abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}
