package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Pass theme changes to the configured theming command",
}

var themeModeCmd = &cobra.Command{
	Use:   "mode <light|dark>",
	Short: "Set the theme mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.wallpapers.SetMode(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("theme mode set to %s\n", args[0])
		return nil
	},
}

var themeSchemeCmd = &cobra.Command{
	Use:   "scheme <name>",
	Short: "Set the color scheme",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.wallpapers.SetScheme(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("color scheme set to %s\n", args[0])
		return nil
	},
}

func init() {
	themeCmd.AddCommand(themeModeCmd)
	themeCmd.AddCommand(themeSchemeCmd)
}
