package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/rpmstamp/internal/service/packager"
	"github.com/oshokin/rpmstamp/internal/service/resolver"
)

// rpmCmd always re-resolves the version and hands it to the packager directly.
var rpmCmd = &cobra.Command{
	Use:   "rpm",
	Short: "Regenerate the version file and build the RPM.",
	Long: `Forces regeneration of the version file, archives the tracked tree under the package
name, injects the version file, and runs the build tool with major_version and
minor_version defined. The intermediate archive is removed whether or not the build succeeds.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		result, err := resolver.Run(cmd.Context(), &resolver.Options{Config: cfg, Force: true})
		if err != nil {
			return err
		}

		return packager.Run(cmd.Context(), &packager.Options{Config: cfg, Version: result.Version})
	},
}
