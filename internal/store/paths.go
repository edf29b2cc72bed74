package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/pathutil"
)

const (
	sessionsDirName = "sessions"
	coursesDirName  = "courses"
	vectorsDirName  = "vectors"
	indexFileName   = "index.json"
	transcriptExt   = ".jsonl"
)

// Layout names every file a workspace owns.
type Layout struct {
	Base string
}

// ResolveLayout validates workspaceID and places it under the workspace root,
// which defaults to ~/.lectern/workspaces.
func ResolveLayout(workspaceID string, workspaceRootPath string) (Layout, error) {
	if err := ValidateID(workspaceID); err != nil {
		return Layout{}, fmt.Errorf("workspace: %w", err)
	}

	root := strings.TrimSpace(workspaceRootPath)
	if root != "" {
		expanded, err := pathutil.Expand(root)
		if err != nil {
			return Layout{}, err
		}
		root = expanded
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return Layout{}, err
		}
		root = filepath.Join(home, ".lectern", "workspaces")
	}

	return Layout{Base: filepath.Join(root, workspaceID)}, nil
}

// ValidateID rejects IDs that would escape their directory when used as a
// file or directory name.
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return lecternErrors.InvalidInput("id is empty")
	case id == "." || id == "..":
		return lecternErrors.InvalidInput(fmt.Sprintf("id %q is reserved", id))
	case strings.ContainsAny(id, `/\`):
		return lecternErrors.InvalidInput(fmt.Sprintf("id %q contains a path separator", id))
	}
	return nil
}

func (l Layout) SessionsDir() string { return filepath.Join(l.Base, sessionsDirName) }
func (l Layout) CoursesDir() string  { return filepath.Join(l.Base, coursesDirName) }
func (l Layout) VectorsDir() string  { return filepath.Join(l.Base, vectorsDirName) }
func (l Layout) LockFile() string    { return filepath.Join(l.Base, lockFileName) }

func (l Layout) SessionIndex() string { return filepath.Join(l.SessionsDir(), indexFileName) }
func (l Layout) CourseIndex() string  { return filepath.Join(l.CoursesDir(), indexFileName) }

func (l Layout) Transcript(sessionID string) string {
	return filepath.Join(l.SessionsDir(), sessionID+transcriptExt)
}

// Dirs lists the directories a workspace needs before the worker starts.
func (l Layout) Dirs() []string {
	return []string{l.SessionsDir(), l.CoursesDir(), l.VectorsDir()}
}
