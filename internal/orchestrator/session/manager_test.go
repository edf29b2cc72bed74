package session

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, maxHistory int) (*Manager, *store.Worker) {
	t.Helper()
	w, err := store.NewWorker("session-ws", t.TempDir(), store.RuntimeConfig{})
	require.NoError(t, err)
	w.Start()
	t.Cleanup(w.Stop)
	return NewManager(w, config.SessionConfig{MaxHistory: maxHistory}), w
}

func TestCreate_RegistersSession(t *testing.T) {
	m, w := newManager(t, 2)

	id, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "session_"))

	meta, err := w.GetSession(id)
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Zero(t, meta.Exchanges)
}

func TestHistory_KeepsLastExchanges(t *testing.T) {
	m, _ := newManager(t, 2)
	ctx := context.Background()

	id, err := m.Create(ctx)
	require.NoError(t, err)

	history, err := m.History(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, m.AddExchange(ctx, id, "q1", "a1"))
	require.NoError(t, m.AddExchange(ctx, id, "q2", "a2"))
	require.NoError(t, m.AddExchange(ctx, id, "q3", "a3"))

	history, err = m.History(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "User: q2\nAssistant: a2\nUser: q3\nAssistant: a3", history)
}

func TestHistory_Disabled(t *testing.T) {
	m, _ := newManager(t, 0)
	ctx := context.Background()

	require.NoError(t, m.AddExchange(ctx, "s", "q", "a"))
	history, err := m.History(ctx, "s")
	require.NoError(t, err)
	assert.Empty(t, history)

	history, err = m.History(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAddExchange_UpdatesIndex(t *testing.T) {
	m, w := newManager(t, 2)
	ctx := context.Background()
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	long := strings.Repeat("x", 80)
	require.NoError(t, m.AddExchange(ctx, "unindexed", long, "a"))
	require.NoError(t, m.AddExchange(ctx, "unindexed", "second", "b"))

	meta, err := w.GetSession("unindexed")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, 2, meta.Exchanges)
	assert.Equal(t, strings.Repeat("x", 60)+"...", meta.Title)
	assert.Equal(t, m.now(), meta.UpdatedAt)

	// Empty session ID records nothing.
	require.NoError(t, m.AddExchange(ctx, "", "q", "a"))
	sessions, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestClear(t *testing.T) {
	m, _ := newManager(t, 2)
	ctx := context.Background()

	require.NoError(t, m.AddExchange(ctx, "s1", "q", "a"))
	require.NoError(t, m.Clear(ctx, "s1"))

	history, err := m.History(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	sessions, err := m.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}
