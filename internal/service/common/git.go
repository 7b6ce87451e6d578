//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Git runs git commands against a working tree.
type Git struct {
	// dir is the working tree; empty means the current directory.
	dir string
	// binary is the git executable name or path.
	binary string
	// callTimeout bounds each query. Archive is bounded only by the caller's context.
	callTimeout time.Duration
}

// GitOption configures a Git.
type GitOption func(*Git)

// WithCallTimeout sets a timeout for each git query.
func WithCallTimeout(timeout time.Duration) GitOption {
	return func(g *Git) {
		if timeout > 0 {
			g.callTimeout = timeout
		}
	}
}

// WithDir runs git inside the given working tree.
func WithDir(dir string) GitOption {
	return func(g *Git) {
		g.dir = dir
	}
}

// WithBinary overrides the git executable.
func WithBinary(binary string) GitOption {
	return func(g *Git) {
		if binary != "" {
			g.binary = binary
		}
	}
}

const (
	// defaultGitBinary is looked up in PATH.
	defaultGitBinary = "git"
	// defaultCallTimeout bounds git queries when no option overrides it.
	defaultCallTimeout = 10 * time.Second
)

// errEmptyOutput is returned when git succeeds but prints nothing.
var errEmptyOutput = errors.New("empty git output")

// NewGit creates a git runner.
func NewGit(opts ...GitOption) *Git {
	g := &Git{
		binary:      defaultGitBinary,
		callTimeout: defaultCallTimeout,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Describe returns "git describe --long" for HEAD.
func (g *Git) Describe(ctx context.Context) (string, error) {
	return g.query(ctx, "describe", "--long")
}

// DescribeAlways returns "git describe --always" for HEAD, which degrades to an abbreviated hash.
func (g *Git) DescribeAlways(ctx context.Context) (string, error) {
	return g.query(ctx, "describe", "--always")
}

// IndexPath returns the location of the git index file.
func (g *Git) IndexPath(ctx context.Context) (string, error) {
	index, err := g.query(ctx, "rev-parse", "--git-path", "index")
	if err != nil {
		return "", err
	}

	if !filepath.IsAbs(index) && g.dir != "" {
		index = filepath.Join(g.dir, index)
	}

	return filepath.Clean(index), nil
}

// Archive streams a tar of the tracked tree at HEAD into w with every entry under prefix/.
func (g *Git) Archive(ctx context.Context, prefix string, w io.Writer) error {
	var stderr bytes.Buffer

	//nolint:gosec // Arguments are fixed apart from the configured prefix.
	cmd := exec.CommandContext(ctx, g.binary, "archive", "--format=tar", "--prefix="+prefix+"/", "HEAD")
	cmd.Dir = g.dir
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return commandError("archive", err, stderr.String())
	}

	return nil
}

// query runs a short git command and returns its trimmed stdout.
func (g *Git) query(ctx context.Context, args ...string) (string, error) {
	callCtx, cancel := g.callContext(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer

	//nolint:gosec // Only fixed subcommands are passed here.
	cmd := exec.CommandContext(callCtx, g.binary, args...)
	cmd.Dir = g.dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(args[0], err, stderr.String())
	}

	output := strings.TrimSpace(stdout.String())
	if output == "" {
		return "", fmt.Errorf("git %s: %w", args[0], errEmptyOutput)
	}

	return output, nil
}

// callContext returns a context with the call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (g *Git) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, g.callTimeout)
}

func commandError(subcommand string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("git %s: %w", subcommand, err)
	}

	return fmt.Errorf("git %s: %w: %s", subcommand, err, stderr)
}
