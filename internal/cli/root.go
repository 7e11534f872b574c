// Package cli holds the waterhealth command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "waterhealth",
	Short: "Water-borne outbreak risk scoring and alerting",
	Long: `waterhealth scores outbreak risk per area from water quality, weather
and disease case observations, raises alerts for High and Critical areas and
delivers area reports by e-mail and SMS.

Examples:
  waterhealth serve
  waterhealth recalculate
  waterhealth report "Anna Nagar" --format pdf --out anna-nagar.pdf
  waterhealth alerts send-pending`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			_ = os.Setenv("CONFIG_FILE", configFile)
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML config file (overrides CONFIG_FILE)")
}
