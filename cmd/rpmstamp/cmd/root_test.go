package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rpmstamp/internal/config"
)

var errGeneric = errors.New("boom")

// TestExitCode maps wrapped tool failures to their status and everything else to 1.
func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, 1, exitCode(errGeneric))

	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh is not available:", err)
	}

	runErr := exec.Command(sh, "-c", "exit 3").Run()
	require.Error(t, runErr)
	require.Equal(t, 3, exitCode(fmt.Errorf("build package: %w", runErr)))
}

// TestInitAndClean drives the CLI in-process: init writes defaults, clean removes the output directory.
func TestInitAndClean(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv(config.InterpreterEnv, "")

	filename := filepath.Join(dir, "custom.yaml")

	rootCmd.SetArgs([]string{"init", "--config", filename})
	require.NoError(t, rootCmd.Execute())

	cfg, err := config.Load(filename)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)

	// A second init refuses to overwrite.
	rootCmd.SetArgs([]string{"init", "--config", filename})
	require.ErrorIs(t, rootCmd.Execute(), errConfigExists)

	require.NoError(t, os.MkdirAll(filepath.Join(dir, cfg.OutputDir, "RPMS"), 0o755))

	rootCmd.SetArgs([]string{"clean", "--config", filename, "--log-level", "warn"})
	require.NoError(t, rootCmd.Execute())
	require.NoDirExists(t, filepath.Join(dir, cfg.OutputDir))

	rootCmd.SetArgs([]string{"clean", "--log-level", "loud"})
	require.ErrorIs(t, rootCmd.Execute(), errUnknownLogLevel)
}

// chdir changes the working directory for the duration of the test (Go 1.21 stand-in for t.Chdir).
func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
