package main

import (
	"fmt"
	"os"

	"github.com/harunnryd/lectern/cmd/lectern/runtime"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start Lectern in interactive mode",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")

		return executeWithRuntime(cmd, func(r *runtime.RuntimeComponents) error {
			if sessionID == "" {
				id, err := r.Sessions.Create(r.Ctx)
				if err != nil {
					return fmt.Errorf("failed to create session: %w", err)
				}
				sessionID = id
			}

			repl := runtime.NewREPL(r, os.Stdin, os.Stdout, sessionID)
			return repl.Start()
		})
	},
}

func init() {
	chatCmd.Flags().String("session", "", "Resume an existing session")
	rootCmd.AddCommand(chatCmd)
}
