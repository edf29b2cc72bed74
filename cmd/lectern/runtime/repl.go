package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/formatter"
	"github.com/harunnryd/lectern/internal/orchestrator"
	"github.com/harunnryd/lectern/internal/orchestrator/command"
)

type asker interface {
	Query(ctx context.Context, query string, sessionID string) (*orchestrator.Answer, error)
}

type REPL struct {
	ctx       context.Context
	assistant asker
	commands  *command.Handler
	state     *command.State
	reader    *bufio.Reader
	out       io.Writer
	errors    lecternErrors.ErrorMapper
}

func NewREPL(components *RuntimeComponents, in io.Reader, out io.Writer, sessionID string) *REPL {
	r := &REPL{
		ctx:       components.Ctx,
		assistant: components.Assistant,
		state:     &command.State{SessionID: sessionID},
		reader:    bufio.NewReader(in),
		out:       out,
		errors:    lecternErrors.NewDefaultErrorMapper(),
	}
	r.commands = command.NewHandler(components.Sessions, components.StoreWorker, r)
	return r
}

// Send prints slash command output.
func (r *REPL) Send(ctx context.Context, sessionID string, content string) error {
	_, err := fmt.Fprintln(r.out, content)
	return err
}

func (r *REPL) Start() error {
	fmt.Fprintf(r.out, "Lectern Interactive Session: %s\n", r.state.SessionID)
	fmt.Fprintln(r.out, "Type '/help' for commands, '/exit' to quit.")

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			if err := r.readLine(); err != nil {
				if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
					return nil
				}
				continue
			}
		}
	}
}

func (r *REPL) readLine() error {
	fmt.Fprint(r.out, "> ")
	text, err := r.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(text) == "") {
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if text == "/exit" {
		return io.EOF
	}

	if r.commands.CanHandle(text) {
		return r.commands.Execute(r.ctx, r.state, text)
	}

	return r.ask(text)
}

func (r *REPL) ask(text string) error {
	answer, err := r.assistant.Query(r.ctx, text, r.state.SessionID)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		fmt.Fprintf(r.out, "Error: %v\n", err)
		if r.errors.IsRetryable(err) {
			fmt.Fprintf(r.out, "(%s: try again in a moment)\n", r.errors.Category(err))
		}
		return nil
	}

	r.state.LastSources = answer.Sources
	fmt.Fprintln(r.out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(r.out, "\nSources:\n%s\n", formatter.FormatSources(answer.Sources))
	}
	return nil
}
