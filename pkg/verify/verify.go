// Package verify implements the verifier: a language-aware parse-check
// hook followed by the external build/test oracle, classifying the outcome
// into a result the loop controller folds into EditState.
//
// A cheap local parse check runs first, then the project's real build
// command; captured output is only reported to the model on failure.
package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Status is the coarse outcome of one Verify call.
type Status string

const (
	StatusSuccess     Status = "SUCCESS"
	StatusBuildFailed Status = "BUILD_FAILED"
	StatusInterrupted Status = "INTERRUPTED"
)

// Request bundles what one Verify call needs: the workspace root, the
// files touched since the last verify, and the collaborators to consult.
type Request struct {
	Root             string
	ChangedFiles     []string
	TestModules      []string
	Oracle           BuildOracle
	Parsers          []LanguageParser
	Timeout          time.Duration
	BuildErrorBudget int
	UseTestCommand   bool // prefer TestCommand(scope) over BuildCommand() when true
}

// Outcome is what the loop controller needs back from one Verify call.
type Outcome struct {
	Status          Status
	LastBuildError  string
	LintDiagnostics map[string][]Diagnostic
	Command         string
}

// Verify runs the verifier's two steps against req and returns an Outcome.
// It never returns an error: every failure mode is folded into Outcome — a
// verify call either succeeds, reports a build failure to retry, or
// reports interruption, with no separate error channel.
func Verify(ctx context.Context, req Request) Outcome {
	diagnostics := runParseCheck(req)

	cmdTemplate, ok := commandTemplate(req)
	if !ok {
		return Outcome{Status: StatusSuccess}
	}

	budget := req.BuildErrorBudget
	if budget <= 0 {
		budget = 32 * 1024
	}

	info, output, err := runShell(ctx, cmdTemplate, req.Root, req.Timeout)
	if err != nil {
		return Outcome{
			Status:         StatusBuildFailed,
			LastBuildError: truncatePrefix(fmt.Sprintf("failed to start build command: %v", err), budget),
			Command:        cmdTemplate,
		}
	}

	if info.Canceled {
		return Outcome{Status: StatusInterrupted, Command: cmdTemplate}
	}

	if info.Succeeded() {
		return Outcome{Status: StatusSuccess, Command: cmdTemplate}
	}

	filtered := map[string][]Diagnostic{}
	for path, ds := range diagnostics {
		if len(ds) > 0 {
			filtered[path] = ds
		}
	}

	return Outcome{
		Status:          StatusBuildFailed,
		LastBuildError:  truncatePrefix(output, budget),
		LintDiagnostics: filtered,
		Command:         cmdTemplate,
	}
}

// commandTemplate picks the test command when configured and requested,
// falling back to the plain build command.
func commandTemplate(req Request) (string, bool) {
	if req.UseTestCommand {
		if cmd, ok := req.Oracle.TestCommand(req.TestModules, req.ChangedFiles); ok {
			return cmd, true
		}
	}
	return req.Oracle.BuildCommand()
}

// runParseCheck implements step 1: for each changed file with a supporting
// LanguageParser, collect and filter its diagnostics. This step never fails
// the verify by itself; its output is only surfaced in the Outcome when
// the build/lint step also fails.
func runParseCheck(req Request) map[string][]Diagnostic {
	if len(req.Parsers) == 0 {
		return nil
	}
	out := map[string][]Diagnostic{}
	for _, relPath := range req.ChangedFiles {
		var parser LanguageParser
		for _, p := range req.Parsers {
			if p.SupportsFile(relPath) {
				parser = p
				break
			}
		}
		if parser == nil {
			continue
		}
		content, err := os.ReadFile(filepath.Join(req.Root, relPath))
		if err != nil {
			continue
		}
		ds, err := parser.Parse(relPath, content)
		if err != nil {
			continue
		}
		if filtered := filterSurfaced(ds); len(filtered) > 0 {
			out[relPath] = filtered
		}
	}
	return out
}
