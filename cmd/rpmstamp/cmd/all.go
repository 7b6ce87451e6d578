package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/rpmstamp/internal/service/resolver"
)

// allCmd regenerates the version file when the git index changed since the last write.
var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Regenerate the version file if it is stale.",
	Args:  cobra.NoArgs,
	RunE:  runAll,
}

func runAll(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	_, err = resolver.Run(cmd.Context(), &resolver.Options{Config: cfg})

	return err
}
