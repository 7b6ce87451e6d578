package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/rpmstamp/internal/service/cleaner"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the package output directory.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return cleaner.Run(cmd.Context(), &cleaner.Options{Config: cfg})
	},
}
