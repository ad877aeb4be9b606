package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearHistoryCmd = &cobra.Command{
	Use:   "clear-history",
	Short: "Reset frecency ranking data",
	Long:  "Discard all recorded usage so every provider starts ranking from scratch.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		a.frec.ClearCache()
		fmt.Println("usage history cleared")
		return nil
	},
}
