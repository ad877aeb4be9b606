// Package cmd defines the glint CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

// configFile is the --config override, empty for the default path.
var configFile string

var rootCmd = &cobra.Command{
	Use:   "glint",
	Short: "frecency-ranked launcher for apps, wallpapers and clipboard",
	Long: `glint - a frecency-ranked picker
  - type to fuzzy-search apps, wallpapers and clipboard history
  - :app, :wp, :clip switch providers; Tab completes or cycles
  - items you use often and recently float to the top`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPicker(cmd.Context())
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	rootCmd.AddCommand(randomCmd)
	rootCmd.AddCommand(wipeCmd)
	rootCmd.AddCommand(clearHistoryCmd)
	rootCmd.AddCommand(themeCmd)
	rootCmd.AddCommand(versionCmd)
}
