package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harunnryd/lectern/cmd/lectern/runtime"

	"github.com/harunnryd/lectern/internal/formatter"
	"github.com/harunnryd/lectern/internal/orchestrator"

	"github.com/spf13/cobra"
)

type querier interface {
	Query(ctx context.Context, query string, sessionID string) (*orchestrator.Answer, error)
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question about the course materials",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		question := strings.Join(args, " ")

		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			return runAsk(r.Ctx, r.Assistant, os.Stdout, question, sessionID)
		})
	},
}

func runAsk(ctx context.Context, q querier, out io.Writer, question, sessionID string) error {
	answer, err := q.Query(ctx, question, sessionID)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\nSources:\n%s\n", formatter.FormatSources(answer.Sources))
	}
	return nil
}

func init() {
	askCmd.Flags().String("session", "", "Session ID to continue")
	rootCmd.AddCommand(askCmd)
}
