package cmd

import (
	"fmt"

	"github.com/coderloop/coderloop/pkg/loop"
	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:   "resume <task-id>",
	Short: "Continue a task that was interrupted mid-run",
	Long: `resume re-attaches to a task's saved state under .coderloop/state/<task-id>.json
and continues the requestModel -> parsePhase -> applyPhase -> verifyPhase cycle
from where it left off.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID := args[0]
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}
		snap, err := loop.LoadSnapshot(root, taskID)
		if err != nil {
			return fmt.Errorf("no resumable task %s: %w", taskID, err)
		}
		return runLoop(cmd, snap.Goal, &snap, false)
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
