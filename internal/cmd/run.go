package cmd

import (
	"context"

	"github.com/runger/glint/internal/tui"
)

// runPicker is the default action: build the graph and hand the
// terminal to the interactive session until it ends.
func runPicker(ctx context.Context) error {
	a, err := buildApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(ctx, a.coord, a.debounce())
}
