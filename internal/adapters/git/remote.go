// Package git reads repository settings through the git executable.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	apperrors "tokenkeeper/internal/errors"
)

const gitBinary = "git"

// Inspector implements domain.RemoteInspector by shelling out to git.
type Inspector struct {
	dir      string
	lookPath func(string) (string, error)
}

// NewInspector creates an inspector for the repository at dir ("" for the
// working directory).
func NewInspector(dir string) *Inspector {
	return &Inspector{dir: dir, lookPath: exec.LookPath}
}

// RemoteURL returns the fetch URL of the named remote.
func (i *Inspector) RemoteURL(ctx context.Context, remote string) (string, error) {
	path, err := i.lookPath(gitBinary)
	if err != nil {
		return "", apperrors.NewMissingToolError(gitBinary, err)
	}

	cmd := exec.CommandContext(ctx, path, "remote", "get-url", remote)
	cmd.Dir = i.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git remote get-url %s: %s: %w", remote, strings.TrimSpace(stderr.String()), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}
