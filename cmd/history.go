package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coderloop/coderloop/pkg/changelog"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}
		h := changelog.NewHistory(root)
		recs, err := h.List()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no recorded changes")
			return nil
		}
		fmt.Println(strings.Repeat("-", 60))
		for _, r := range recs {
			fmt.Printf("%s  task=%s  %s\n", r.RecordedAt.Format("2006-01-02 15:04:05"), r.TaskID, r.Path)
		}
		return nil
	},
}

var revertCmd = &cobra.Command{
	Use:   "revert <path>",
	Short: "Restore a file to its content from before its most recent recorded change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := cmd.Flags().GetString("root")
		if err != nil {
			return err
		}
		path := args[0]
		h := changelog.NewHistory(root)
		recs, err := h.ForPath(path)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			return fmt.Errorf("no recorded change for %s", path)
		}

		current, _ := os.ReadFile(filepath.Join(root, path))
		fmt.Print(changelog.Render(path, string(current), recs[0].Original))

		if err := h.Revert(root, path); err != nil {
			return err
		}
		fmt.Printf("reverted %s to its state before task %s\n", path, recs[0].TaskID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(revertCmd)
}
