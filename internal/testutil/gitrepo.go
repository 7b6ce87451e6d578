// Package testutil provides fixtures shared by package and integration tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// GitRepo is a throwaway git working tree isolated from the user's git configuration.
type GitRepo struct {
	t testing.TB

	// Dir is the working tree root.
	Dir string
}

// NewGitRepo initializes an empty repository in a temporary directory.
// The test is skipped when git is not installed.
func NewGitRepo(t testing.TB) *GitRepo {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not available:", err)
	}

	repo := &GitRepo{
		t:   t,
		Dir: t.TempDir(),
	}

	repo.Git("init", "-q")

	return repo
}

// Git runs a git command in the repository and returns its trimmed output.
func (r *GitRepo) Git(args ...string) string {
	r.t.Helper()

	args = append([]string{
		"-c", "commit.gpgsign=false",
		"-c", "tag.gpgsign=false",
		"-c", "core.autocrlf=false",
	}, args...)

	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir
	cmd.Env = append(os.Environ(),
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL="+os.DevNull,
		"GIT_AUTHOR_NAME=rpmstamp",
		"GIT_AUTHOR_EMAIL=rpmstamp@example.com",
		"GIT_COMMITTER_NAME=rpmstamp",
		"GIT_COMMITTER_EMAIL=rpmstamp@example.com",
	)

	output, err := cmd.CombinedOutput()
	require.NoError(r.t, err, "git %s: %s", strings.Join(args, " "), output)

	return strings.TrimSpace(string(output))
}

// WriteFile writes a file relative to the repository root, creating parent directories.
func (r *GitRepo) WriteFile(name, contents string) {
	r.t.Helper()

	path := filepath.Join(r.Dir, filepath.FromSlash(name))
	require.NoError(r.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(r.t, os.WriteFile(path, []byte(contents), 0o644))
}

// Commit stages everything and commits it. It returns the abbreviated hash.
func (r *GitRepo) Commit(message string) string {
	r.t.Helper()

	r.Git("add", "-A")
	r.Git("commit", "-q", "--allow-empty", "-m", message)

	return r.Git("rev-parse", "--short", "HEAD")
}

// Tag creates an annotated tag at HEAD. Plain git describe only sees annotated tags.
func (r *GitRepo) Tag(name string) {
	r.t.Helper()

	r.Git("tag", "-a", name, "-m", "release "+name)
}
