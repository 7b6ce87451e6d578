package cleaner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rpmstamp/internal/config"
)

// TestRun_RemovesOutputDir deletes the directory and everything under it.
func TestRun_RemovesOutputDir(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.OutputDir = filepath.Join(t.TempDir(), "rpms")

	nested := filepath.Join(cfg.OutputDir, "RPMS", "noarch")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "aiven-client.rpm"), []byte("rpm"), 0o644))

	require.NoError(t, Run(context.Background(), &Options{Config: cfg}))
	require.NoDirExists(t, cfg.OutputDir)

	// Second run on a missing directory still succeeds.
	require.NoError(t, Run(context.Background(), &Options{Config: cfg}))
}

// TestRun_Validation rejects missing configuration.
func TestRun_Validation(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Run(context.Background(), nil), errConfigRequired)
	require.ErrorIs(t, Run(context.Background(), &Options{Config: &config.Config{}}), errOutputDirNotSet)
}
