package versionfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/rpmstamp/internal/domain/release"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.py"))

	contents, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, contents)
}

// TestFileRepository_SaveCreatesParents ensures the first write creates the file and its directories.
func TestFileRepository_SaveCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aiven", "client", "version.py")
	repo := NewFileRepository(path)
	require.Equal(t, path, repo.Path())

	written, err := repo.Save(context.Background(), release.NewDescribed("0.9.0", 5, "abc123"))
	require.NoError(t, err)
	require.True(t, written)

	contents, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "__version__ = '0.9.0-5-gabc123'\n", contents)

	// No leftovers from the atomic swap.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestFileRepository_SaveIsIdempotent checks unchanged content is not rewritten.
func TestFileRepository_SaveIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "version.py")
	repo := NewFileRepository(path)
	version := release.NewFallback("0.9.0", "")

	_, err := repo.Save(context.Background(), version)
	require.NoError(t, err)

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(path, past, past))

	written, err := repo.Save(context.Background(), version)
	require.NoError(t, err)
	require.False(t, written)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.True(t, info.ModTime().Equal(past))

	// Different content replaces the file.
	written, err = repo.Save(context.Background(), release.NewDescribed("0.9.0", 1, "feed"))
	require.NoError(t, err)
	require.True(t, written)

	contents, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "__version__ = '0.9.0-1-gfeed'\n", contents)
}

// TestFileRepository_IsStale covers the staleness rules against a reference file.
func TestFileRepository_IsStale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "version.py")
	index := filepath.Join(dir, "index")
	repo := NewFileRepository(path)
	ctx := context.Background()

	// Missing generated file.
	require.True(t, repo.IsStale(ctx, index))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(index, []byte("y"), 0o644))

	// Unknown or missing reference.
	require.True(t, repo.IsStale(ctx, ""))
	require.True(t, repo.IsStale(ctx, filepath.Join(dir, "missing-index")))

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-time.Hour)

	// Reference older than the generated file.
	require.NoError(t, os.Chtimes(index, older, older))
	require.NoError(t, os.Chtimes(path, newer, newer))
	require.False(t, repo.IsStale(ctx, index))

	// Reference changed after the last write.
	require.NoError(t, os.Chtimes(index, newer, newer))
	require.NoError(t, os.Chtimes(path, older, older))
	require.True(t, repo.IsStale(ctx, index))
}

// TestFileRepository_TouchClearsStaleness marks unchanged content as regenerated, even for a future index.
func TestFileRepository_TouchClearsStaleness(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "version.py")
	index := filepath.Join(dir, "index")
	repo := NewFileRepository(path)
	ctx := context.Background()
	version := release.NewDescribed("0.9.0", 5, "abc123")

	_, err := repo.Save(ctx, version)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(index, []byte("y"), 0o644))

	// Index staged after the write, clock skewed ahead.
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(index, future, future))
	require.True(t, repo.IsStale(ctx, index))

	// Same version: nothing written, but the file counts as regenerated.
	written, err := repo.Save(ctx, version)
	require.NoError(t, err)
	require.False(t, written)
	require.NoError(t, repo.Touch(ctx, index))
	require.False(t, repo.IsStale(ctx, index))

	contents, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, version.Line(), contents)

	// Unknown reference falls back to the current time.
	require.NoError(t, repo.Touch(ctx, ""))
	require.ErrorIs(t, NewFileRepository(filepath.Join(dir, "missing.py")).Touch(ctx, index), os.ErrNotExist)
}
