package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/rpmstamp/internal/config"
	"github.com/oshokin/rpmstamp/internal/logger"
)

var (
	// overwrite allows init to replace an existing configuration file.
	overwrite bool

	errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filename := configPath
			if filename == "" {
				filename = config.DefaultConfigFilename
			}

			if _, err := os.Stat(filename); err == nil && !overwrite {
				return fmt.Errorf("%s: %w", filename, errConfigExists)
			}

			if err := config.Save(filename, config.Default()); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Configuration written", "path", filename)

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().BoolVarP(&overwrite, "force", "f", false, "overwrite an existing configuration file")
}
