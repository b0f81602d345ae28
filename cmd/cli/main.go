// Package main is the entry point for the stn CLI.
package main

import (
	"os"

	"trajectory-stn/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
