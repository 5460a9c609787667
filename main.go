// Package main provides the entry point for the coderloop CLI: a
// self-correcting loop that drives a local language model through
// propose/apply/verify cycles against a git-backed workspace.
package main

import (
	"fmt"
	"os"

	"github.com/coderloop/coderloop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
