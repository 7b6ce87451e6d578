package cleaner

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/logger"
)

// Options controls the clean run.
type Options struct {
	// Config is the loaded project configuration.
	Config *config.Config
}

var (
	errConfigRequired  = errors.New("configuration is required")
	errOutputDirNotSet = errors.New("output directory is not set")
)

// Run removes the package output directory. A missing directory is not an error.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "cleaner")

	if opts == nil || opts.Config == nil {
		return errConfigRequired
	}

	outputDir := opts.Config.OutputDir
	if outputDir == "" {
		return errOutputDirNotSet
	}

	if err := os.RemoveAll(outputDir); err != nil {
		return fmt.Errorf("remove %s: %w", outputDir, err)
	}

	logger.InfoKV(ctx, "Output directory removed", "path", outputDir)

	return nil
}
