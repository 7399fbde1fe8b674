// Package main is the entry point for the clausecheck CLI.
// The CLI is the developer terminal tool for interacting with the clausecheck API.
package main

import (
	"clausecheck/cmd/cli/cmd"
	"os"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
