package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/rpmstamp/internal/logger"
)

// ensureNoConcurrentRun inspects a leftover archive. It belongs to a live run when another
// process with our executable name exists; otherwise it is stale and removed.
func (p *packager) ensureNoConcurrentRun(ctx context.Context, archive string) error {
	_, err := os.Stat(archive)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("stat source archive: %w", err)
	}

	running, err := isProcessRunning(p.processName)
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if running {
		return fmt.Errorf("%s: %w", archive, errPackagingInProgress)
	}

	logger.WarnKV(ctx, "Removing stale source archive", "archive", archive)

	if err = os.Remove(archive); err != nil {
		return fmt.Errorf("remove stale source archive: %w", err)
	}

	return nil
}

// isProcessRunning reports whether a process other than this one runs the named executable.
func isProcessRunning(name string) (bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return false, err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		if process.Pid() == thisProcessID {
			continue
		}

		if executableName(process.Executable()) == name {
			return true, nil
		}
	}

	return false, nil
}

// currentProcessName returns the normalized executable name of this process.
func currentProcessName() string {
	return executableName(filepath.Base(os.Args[0]))
}

func executableName(name string) string {
	return strings.TrimSuffix(strings.ToLower(name), ".exe")
}
