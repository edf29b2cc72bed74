package runtime

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestResolveWorkspaceID(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		want string
	}{
		{name: "flag wins", flag: "physics", env: "chemistry", want: "physics"},
		{name: "env when flag empty", flag: "", env: "chemistry", want: "chemistry"},
		{name: "blank flag ignored", flag: "  ", env: "", want: DefaultWorkspaceID},
		{name: "default", want: DefaultWorkspaceID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(workspaceEnv, tt.env)
			cmd := &cobra.Command{}
			cmd.Flags().StringP("workspace", "w", "", "Target workspace ID")
			_ = cmd.Flags().Set("workspace", tt.flag)

			assert.Equal(t, tt.want, ResolveWorkspaceID(cmd))
		})
	}
}

func TestResolveWorkspaceID_WithoutFlagOrCommand(t *testing.T) {
	t.Setenv(workspaceEnv, "")
	assert.Equal(t, DefaultWorkspaceID, ResolveWorkspaceID(&cobra.Command{}))
	assert.Equal(t, DefaultWorkspaceID, ResolveWorkspaceID(nil))
}
