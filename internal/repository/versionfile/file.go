package versionfile

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/domain/release"

	// Ensure SHA256 is available for write verification.
	_ "crypto/sha256"
)

// Repository defines persistence operations for the generated version file.
type Repository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, version release.Version) (bool, error)
	IsStale(ctx context.Context, reference string) bool
	Touch(ctx context.Context, reference string) error
}

// FileRepository writes the generated version file on disk.
type FileRepository struct {
	// path is the generated file location.
	path string
	// mu serializes access to the file.
	mu sync.Mutex
}

const (
	// checksumFunction verifies the replacement content before it is swapped in.
	checksumFunction = crypto.SHA256
	// directoryPermissions is used when parent directories of the generated file are missing.
	directoryPermissions = 0o755
)

var (
	// ErrNotFound is returned when the generated file does not exist yet.
	ErrNotFound = errors.New("generated file not found")

	errHashUnavailable = errors.New("hash function unavailable")
)

// NewFileRepository creates a repository for the generated file at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the generated file location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load returns the current content of the generated file.
func (r *FileRepository) Load(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("read generated file: %w", err)
	}

	return string(contents), nil
}

// Save writes the version line, replacing the previous content atomically.
// It reports false without touching the file when the content is already current.
func (r *FileRepository) Save(_ context.Context, version release.Version) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents := []byte(version.Line())

	current, err := os.ReadFile(r.path)

	switch {
	case err == nil:
		if bytes.Equal(current, contents) {
			return false, nil
		}
	case errors.Is(err, os.ErrNotExist):
		if err = r.createEmpty(); err != nil {
			return false, err
		}
	default:
		return false, fmt.Errorf("read generated file: %w", err)
	}

	if !checksumFunction.Available() {
		return false, fmt.Errorf("verify generated file: %w", errHashUnavailable)
	}

	hasher := checksumFunction.New()
	_, _ = hasher.Write(contents)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: config.DefaultFilePermissions,
		Checksum:   hasher.Sum(nil),
		Hash:       checksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(contents), options); err != nil {
		return false, fmt.Errorf("write generated file: %w", err)
	}

	return true, nil
}

// IsStale reports whether the generated file must be regenerated:
// it is missing, the reference file cannot be read, or the reference changed after the last write.
func (r *FileRepository) IsStale(_ context.Context, reference string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	generated, err := os.Stat(r.path)
	if err != nil {
		return true
	}

	if reference == "" {
		return true
	}

	referenceInfo, err := os.Stat(reference)
	if err != nil {
		return true
	}

	return referenceInfo.ModTime().After(generated.ModTime())
}

// createEmpty prepares the target that the atomic replacement swaps out.
func (r *FileRepository) createEmpty() error {
	if err := os.MkdirAll(filepath.Dir(r.path), directoryPermissions); err != nil {
		return fmt.Errorf("create generated file directory: %w", err)
	}

	file, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY, config.DefaultFilePermissions)
	if err != nil {
		return fmt.Errorf("create generated file: %w", err)
	}

	return file.Close()
}

// Touch marks the generated file as current without rewriting it. The new mtime is now,
// or the reference mtime when that lies in the future, so IsStale reports false afterwards.
func (r *FileRepository) Touch(_ context.Context, reference string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	modified := time.Now()

	if reference != "" {
		if info, err := os.Stat(reference); err == nil && info.ModTime().After(modified) {
			modified = info.ModTime()
		}
	}

	if err := os.Chtimes(r.path, modified, modified); err != nil {
		return fmt.Errorf("touch generated file: %w", err)
	}

	return nil
}
