// Package main provides the parley backend entry point.
package main

import (
	"fmt"
	"os"

	"github.com/parleyhq/parley/cmd"
)

func main() {
	if err := cmd.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
