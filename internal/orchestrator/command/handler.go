package command

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/harunnryd/lectern/internal/formatter"
	"github.com/harunnryd/lectern/internal/store"
	"github.com/harunnryd/lectern/internal/tool"

	"github.com/google/shlex"
)

// Sessions clears conversation history.
type Sessions interface {
	Clear(ctx context.Context, sessionID string) error
}

// Catalog lists ingested courses.
type Catalog interface {
	ListCourses() ([]store.CourseRecord, error)
}

type commandOutput interface {
	Send(ctx context.Context, sessionID string, content string) error
}

// State is the chat state slash commands read and modify.
type State struct {
	SessionID   string
	LastSources []tool.Source
}

type Handler struct {
	sessions Sessions
	catalog  Catalog
	tables   *formatter.TableFormatter
	output   commandOutput
}

const commandOutputPrefix = "[CMD] "

func NewHandler(s Sessions, c Catalog, output commandOutput) *Handler {
	return &Handler{
		sessions: s,
		catalog:  c,
		tables:   formatter.NewTableFormatter(),
		output:   output,
	}
}

func (h *Handler) CanHandle(input string) bool {
	return strings.HasPrefix(strings.TrimSpace(input), "/")
}

// Execute runs one slash command. Command failures are reported through the
// output, not returned.
func (h *Handler) Execute(ctx context.Context, state *State, input string) error {
	parts, parseErr := shlex.Split(input)
	if parseErr != nil {
		parts = strings.Fields(input)
	}
	if len(parts) == 0 {
		return nil
	}
	cmd := parts[0]

	slog.Info("Executing slash command", "cmd", cmd, "session", state.SessionID)

	var msg string
	var err error

	switch cmd {
	case "/clear":
		msg, err = h.handleClear(ctx, state)
	case "/courses":
		msg, err = h.handleCourses()
	case "/sources":
		msg = formatter.FormatSources(state.LastSources)
	case "/session":
		msg = fmt.Sprintf("Session: %s", state.SessionID)
	case "/help":
		msg = h.helpText()
	default:
		msg = fmt.Sprintf("Unknown command: %s", cmd)
	}

	if err != nil {
		msg = fmt.Sprintf("Command failed: %v", err)
		slog.Error("Command execution failed", "cmd", cmd, "error", err)
	}

	if h.output != nil {
		if err := h.output.Send(ctx, state.SessionID, formatCommandOutput(msg)); err != nil {
			return fmt.Errorf("send command output: %w", err)
		}
	}
	return nil
}

func (h *Handler) handleClear(ctx context.Context, state *State) (string, error) {
	if state.SessionID == "" {
		return "", fmt.Errorf("session id is required")
	}
	if h.sessions == nil {
		return "", fmt.Errorf("session manager not initialized")
	}
	if err := h.sessions.Clear(ctx, state.SessionID); err != nil {
		return "", err
	}
	state.LastSources = nil
	return "Session cleared.", nil
}

func (h *Handler) handleCourses() (string, error) {
	if h.catalog == nil {
		return "", fmt.Errorf("catalog not initialized")
	}
	courses, err := h.catalog.ListCourses()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d course(s)\n%s", len(courses), h.tables.FormatCourses(courses)), nil
}

func (h *Handler) helpText() string {
	return "Available commands: /help, /clear, /courses, /sources, /session"
}

func formatCommandOutput(msg string) string {
	if strings.HasPrefix(msg, commandOutputPrefix) {
		return msg
	}
	return commandOutputPrefix + msg
}
