package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/coderloop/coderloop/pkg/changelog"
	"github.com/coderloop/coderloop/pkg/config"
	"github.com/coderloop/coderloop/pkg/llmclient"
	"github.com/coderloop/coderloop/pkg/logging"
	"github.com/coderloop/coderloop/pkg/loop"
	"github.com/coderloop/coderloop/pkg/verify"
	"github.com/coderloop/coderloop/pkg/workspace"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [goal]",
	Short: "Start a new editing task against the current workspace",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		goal := strings.Join(args, " ")
		useTest, err := cmd.Flags().GetBool("test")
		if err != nil {
			return err
		}
		return runLoop(cmd, goal, nil, useTest)
	},
}

func init() {
	runCmd.Flags().Bool("yes", false, "skip the accept-immediately confirmation prompt")
	runCmd.Flags().Bool("test", false, "run the configured test command instead of the build command on verify")
	rootCmd.AddCommand(runCmd)
}

// buildLoopOptions assembles loop.Options shared by run and resume from the
// workspace rooted at the --root flag.
func buildLoopOptions(cmd *cobra.Command, goal string) (loop.Options, *config.Config, error) {
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return loop.Options{}, nil, err
	}
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return loop.Options{}, nil, err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return loop.Options{}, nil, fmt.Errorf("loading config: %w", err)
	}
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		cfg.AcceptImmediately = true
	}

	logger := logging.Get(false)

	repo, err := workspace.NewRepository(root, cfg.EditableIgnoreFile)
	if err != nil {
		return loop.Options{}, nil, fmt.Errorf("opening workspace: %w", err)
	}
	store := workspace.CommandStore{Build: cfg.BuildCommand, Test: cfg.TestCommand}

	var model loop.ModelClient = llmclient.NewOllamaClient(cfg.Model, cfg.OllamaServerURL, cfg.BuildTimeout)

	opts := loop.Options{
		Goal:              goal,
		Root:              root,
		AcceptImmediately: cfg.AcceptImmediately,
		Model:             model,
		ReadOnly:          repo,
		Oracle:            store,
		Parsers:           []verify.LanguageParser{verify.GoParser{}},
		Sink:              consoleSink{},
		History:           changelog.NewHistory(root),
		Config:            cfg,
		Logger:            logger,
	}
	return opts, cfg, nil
}

func runLoop(cmd *cobra.Command, goal string, resume *loop.Snapshot, useTestCommand bool) error {
	opts, _, err := buildLoopOptions(cmd, goal)
	if err != nil {
		return err
	}
	opts.Resume = resume
	opts.UseTestCommand = useTestCommand

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result := loop.RunTask(ctx, opts)
	printResult(result)
	if result.StopReason != loop.StopSuccess {
		return fmt.Errorf("task ended with %s: %s", result.StopReason, result.Explanation)
	}
	return nil
}

func printResult(result loop.TaskResult) {
	status := color.New(color.FgGreen)
	if result.StopReason != loop.StopSuccess {
		status = color.New(color.FgRed)
	}
	status.Printf("%s\n", result.StopReason)
	if result.Explanation != "" {
		fmt.Println(result.Explanation)
	}
	if len(result.ChangedFiles) > 0 {
		fmt.Println("changed files:")
		for _, f := range result.ChangedFiles {
			fmt.Printf("  %s\n", f)
		}
	}
}

// consoleSink prints progress notifications to stdout as they happen.
type consoleSink struct{}

func (consoleSink) Notify(event string) {
	fmt.Printf("[%s] %s\n", time.Now().Format("15:04:05"), event)
}
