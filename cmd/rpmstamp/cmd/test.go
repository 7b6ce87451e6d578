package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/rpmstamp/internal/service/checker"
)

// testCmd runs lint, type-check and unit tests against the stamped tree.
var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the configured lint, type-check and unit test steps.",
	Long: `Ensures the version file exists, then runs every configured test step in order.
The first failing step stops the run and its exit code becomes rpmstamp's exit code.
The {interpreter} placeholder is replaced with the configured interpreter or $PYTHON.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		return checker.Run(cmd.Context(), &checker.Options{Config: cfg})
	},
}
