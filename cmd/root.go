package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coderloop",
	Short: "A self-correcting loop that drives a local model through code edits",
	Long: `coderloop repeatedly asks a language model for edits, applies them to
your workspace with anchor-based self-correction, and verifies the result
against your build/test command before asking for another round.

Available commands:
  run      - Start a new editing task against the current workspace
  resume   - Continue a task that was interrupted mid-run
  history  - List recorded file changes
  revert   - Restore a file to its content before its most recent recorded change
  version  - Print version information`,
}

// Execute adds all child commands to the root command and runs it. It is
// called once from main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("root", ".", "workspace root to operate on")
	rootCmd.PersistentFlags().String("config", ".coderloop.yaml", "path to the config file")
}
