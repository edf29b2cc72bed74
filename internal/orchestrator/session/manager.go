package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/store"

	"github.com/oklog/ulid/v2"
)

const idPrefix = "session_"

// titleMaxRunes bounds the session title derived from the first question.
const titleMaxRunes = 60

// Store is the transcript and session index persistence used by the manager.
type Store interface {
	WriteTranscript(sessionID string, data []byte) error
	ReadTranscript(sessionID string, limit int) ([]string, error)
	ResetSession(sessionID string) error
	GetSession(id string) (*store.SessionMeta, error)
	SaveSession(session store.SessionMeta) error
	ListSessions() ([]store.SessionMeta, error)
}

// Manager keeps per-session conversation history.
type Manager struct {
	store      Store
	maxHistory int
	now        func() time.Time
}

func NewManager(s Store, cfg config.SessionConfig) *Manager {
	maxHistory := cfg.MaxHistory
	if maxHistory < 0 {
		maxHistory = 0
	}
	return &Manager{store: s, maxHistory: maxHistory, now: time.Now}
}

// Create registers a new empty session and returns its ID.
func (m *Manager) Create(ctx context.Context) (string, error) {
	id := idPrefix + ulid.Make().String()
	now := m.now().UTC()
	if err := m.store.SaveSession(store.SessionMeta{ID: id, CreatedAt: now, UpdatedAt: now}); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	slog.Debug("Session created", "session_id", id)
	return id, nil
}

// AddExchange records one question and its answer.
func (m *Manager) AddExchange(ctx context.Context, sessionID, query, answer string) error {
	if strings.TrimSpace(sessionID) == "" {
		return nil
	}

	now := m.now().UTC()
	for _, entry := range []store.TranscriptEntry{
		{ID: ulid.Make().String(), Timestamp: now, Role: store.RoleUser, Content: query},
		{ID: ulid.Make().String(), Timestamp: now, Role: store.RoleAssistant, Content: answer},
	} {
		line, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		if err := m.store.WriteTranscript(sessionID, line); err != nil {
			return err
		}
	}

	meta, err := m.store.GetSession(sessionID)
	if err != nil {
		return err
	}
	if meta == nil {
		meta = &store.SessionMeta{ID: sessionID, CreatedAt: now}
	}
	if meta.Title == "" {
		meta.Title = truncate(query, titleMaxRunes)
	}
	meta.Exchanges++
	meta.UpdatedAt = now
	return m.store.SaveSession(*meta)
}

// History renders the most recent exchanges as "User: ..." and
// "Assistant: ..." lines. It returns "" when there is nothing to show.
func (m *Manager) History(ctx context.Context, sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" || m.maxHistory == 0 {
		return "", nil
	}

	lines, err := m.store.ReadTranscript(sessionID, m.maxHistory*2)
	if err != nil {
		return "", err
	}

	rendered := make([]string, 0, len(lines))
	for _, line := range lines {
		var entry store.TranscriptEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			slog.Warn("Skipping malformed transcript line", "session_id", sessionID, "error", err)
			continue
		}
		rendered = append(rendered, fmt.Sprintf("%s: %s", speaker(entry.Role), entry.Content))
	}
	return strings.Join(rendered, "\n"), nil
}

// Clear drops the session transcript and its index entry.
func (m *Manager) Clear(ctx context.Context, sessionID string) error {
	return m.store.ResetSession(sessionID)
}

func (m *Manager) List(ctx context.Context) ([]store.SessionMeta, error) {
	return m.store.ListSessions()
}

func speaker(role store.Role) string {
	switch role {
	case store.RoleAssistant:
		return "Assistant"
	default:
		return "User"
	}
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
