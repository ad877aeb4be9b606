// Package main is the entry point for the glint CLI.
package main

import (
	"os"

	"github.com/runger/glint/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
