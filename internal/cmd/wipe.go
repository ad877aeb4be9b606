package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Clear the clipboard history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, ok := a.coord.ProviderConfig("clip"); !ok {
			return errors.New("clipboard support unavailable (is cliphist installed?)")
		}
		a.coord.SetActiveProvider(cmd.Context(), "clip")
		a.coord.Wipe(cmd.Context())
		return nil
	},
}
