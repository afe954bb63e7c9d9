// Package main is the entry point for the flare CLI.
package main

import (
	"os"

	"github.com/runeberg/flare/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
