package runtime

import (
	"os"
	"strings"

	"github.com/harunnryd/lectern/internal/config"

	"github.com/spf13/cobra"
)

const (
	DefaultWorkspaceID = config.DefaultWorkspaceID
	workspaceEnv       = "LECTERN_WORKSPACE"
)

// ResolveWorkspaceID picks the workspace from --workspace, then
// LECTERN_WORKSPACE, then the default.
func ResolveWorkspaceID(cmd *cobra.Command) string {
	if cmd != nil {
		if id, _ := cmd.Flags().GetString("workspace"); strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	if id := strings.TrimSpace(os.Getenv(workspaceEnv)); id != "" {
		return id
	}
	return DefaultWorkspaceID
}
