package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/harunnryd/lectern/cmd/lectern/runtime"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/formatter"
	"github.com/harunnryd/lectern/internal/store"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage sessions",
	Long:  `List and reset conversation sessions in the workspace.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List sessions",
	Long:  `Display all conversation sessions, most recently active first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return listSessions(os.Stdout, runtime.ResolveWorkspaceID(cmd), workspaceRootPath())
	},
}

var sessionResetCmd = &cobra.Command{
	Use:   "reset [id]",
	Short: "Reset a session (delete data)",
	Long:  `Delete the transcript and index entry of a session.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var storeCfg config.StoreConfig
		if cfg != nil {
			storeCfg = cfg.Store
		}
		return resetSession(os.Stdout, runtime.ResolveWorkspaceID(cmd), workspaceRootPath(), storeCfg, args[0])
	},
}

func listSessions(out io.Writer, workspaceID, rootPath string) error {
	sessions, err := store.ReadSessions(workspaceID, rootPath)
	if err != nil {
		return fmt.Errorf("failed to read sessions: %w", err)
	}

	if len(sessions) == 0 {
		fmt.Fprintln(out, "No sessions found.")
		fmt.Fprintln(out, "\nRun 'lectern chat' to create your first session.")
		return nil
	}

	fmt.Fprintln(out, formatter.NewTableFormatter().FormatSessions(sessions))
	fmt.Fprintf(out, "\nTotal: %d session(s)\n", len(sessions))
	return nil
}

func resetSession(out io.Writer, workspaceID, rootPath string, storeCfg config.StoreConfig, sessionID string) error {
	rc, err := store.RuntimeConfigFrom(storeCfg)
	if err != nil {
		return err
	}
	// Fail fast when another instance holds the workspace.
	rc.LockTimeout = time.Second
	rc.LockMaxRetry = 1

	worker, err := store.NewWorker(workspaceID, rootPath, rc)
	if err != nil {
		return fmt.Errorf("workspace is locked by another Lectern instance: %w", err)
	}
	worker.Start()
	defer worker.Stop()

	if err := worker.ResetSession(sessionID); err != nil {
		return fmt.Errorf("failed to reset session: %w", err)
	}

	fmt.Fprintf(out, "✓ Session '%s' reset successfully.\n", sessionID)
	return nil
}

func init() {
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionResetCmd)
	rootCmd.AddCommand(sessionCmd)
}
