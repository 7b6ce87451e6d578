package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/logger"
	"github.com/oshokin/rpmstamp/internal/version"
)

var (
	// configPath to the configuration YAML file. Empty means the default file, which may be absent.
	configPath string
	// logLevel is the minimum level written to stderr.
	logLevel string

	errUnknownLogLevel = errors.New("unknown log level")

	// rootCmd runs the default target: keep the generated version file current.
	rootCmd = &cobra.Command{
		Use:   "rpmstamp",
		Short: "Stamp a git-derived version into a project and package it as an RPM.",
		Long: `rpmstamp derives a long version from the hand-maintained short version and the
nearest annotated git tag, writes it into an untracked generated file, and packages the
tracked tree together with that file through rpmbuild.

Without a subcommand it behaves like "rpmstamp all".`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%q: %w", logLevel, errUnknownLogLevel)
			}

			logger.SetLevel(level)

			// Every log line of one invocation carries the same run_id.
			cmd.SetContext(logger.WithKV(cmd.Context(), "run_id", uuid.NewString()))

			return nil
		},
		RunE: runAll,
	}
)

// Execute runs the rpmstamp CLI and exits with the failing tool's status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		logger.ErrorKV(ctx, "Command failed", "error", err)
		logger.Sync()
		os.Exit(exitCode(err))
	}

	logger.Sync()
}

// exitCode returns the exit status of a failed external tool found in the chain, or 1.
func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
		return exitErr.ExitCode()
	}

	return 1
}

// loadConfig reads the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to configuration file (default "+config.DefaultConfigFilename+", optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(allCmd, testCmd, cleanCmd, rpmCmd, initCmd)
	version.AttachCobraVersionCommand(rootCmd)
}
