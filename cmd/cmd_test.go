package cmd

import "testing"

func TestRunCommandArgsValidation(t *testing.T) {
	if runCmd.Args == nil {
		t.Fatal("run command should have argument validation configured")
	}
	if err := runCmd.Args(runCmd, []string{}); err == nil {
		t.Error("expected error when no goal is provided")
	}
	if err := runCmd.Args(runCmd, []string{"fix the bug"}); err != nil {
		t.Errorf("expected no error with a goal argument, got: %v", err)
	}
}

func TestResumeCommandRequiresExactlyOneArg(t *testing.T) {
	if err := resumeCmd.Args(resumeCmd, []string{}); err == nil {
		t.Error("expected error with no task id")
	}
	if err := resumeCmd.Args(resumeCmd, []string{"task-1", "extra"}); err == nil {
		t.Error("expected error with more than one argument")
	}
	if err := resumeCmd.Args(resumeCmd, []string{"task-1"}); err != nil {
		t.Errorf("expected no error with exactly one task id, got: %v", err)
	}
}

func TestRevertCommandRequiresExactlyOneArg(t *testing.T) {
	if err := revertCmd.Args(revertCmd, []string{}); err == nil {
		t.Error("expected error with no path")
	}
	if err := revertCmd.Args(revertCmd, []string{"a.go"}); err != nil {
		t.Errorf("expected no error with exactly one path, got: %v", err)
	}
}

func TestRunCommandFlags(t *testing.T) {
	if runCmd.Flags().Lookup("yes") == nil {
		t.Error("run command should register a --yes flag")
	}
	if runCmd.Flags().Lookup("test") == nil {
		t.Error("run command should register a --test flag")
	}
}

func TestVersionCommandHelp(t *testing.T) {
	if versionCmd.Use != "version" {
		t.Errorf("expected Use to be %q, got %q", "version", versionCmd.Use)
	}
	if versionCmd.Short == "" {
		t.Error("short description should not be empty")
	}
	if versionCmd.Run == nil {
		t.Error("version command should have a Run function")
	}
}

func TestRootCommandPersistentFlags(t *testing.T) {
	if rootCmd.PersistentFlags().Lookup("root") == nil {
		t.Error("root command should register a --root flag")
	}
	if rootCmd.PersistentFlags().Lookup("config") == nil {
		t.Error("root command should register a --config flag")
	}
}

func TestRootCommandHasExpectedSubcommands(t *testing.T) {
	want := map[string]bool{"run": false, "resume": false, "history": false, "revert": false, "version": false}
	for _, c := range rootCmd.Commands() {
		name := c.Name()
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("expected rootCmd to have a %q subcommand", name)
		}
	}
}
