// Package main provides the entry point for the fuzzymatch CLI.
package main

import (
	"os"

	"github.com/Aman-CERP/fuzzymatch/cmd/fuzzymatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
