package cmd

import (
	"github.com/spf13/cobra"
)

var randomCmd = &cobra.Command{
	Use:   "random",
	Short: "Apply a random wallpaper",
	Long:  "Apply a random wallpaper from the configured directory, never repeating the current one.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		a.coord.Random(cmd.Context(), "wp")
		return nil
	},
}
