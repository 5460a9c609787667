package loop

import (
	"context"

	"github.com/coderloop/coderloop/pkg/applier"
	"github.com/coderloop/coderloop/pkg/directive"
	"github.com/coderloop/coderloop/pkg/verify"
)

type outcomeKind int

const (
	outcomeContinue outcomeKind = iota
	outcomeRetry
	outcomeFatal
)

// phaseOutcome is the Continue/Retry/Fatal result of one phase, folded
// into one type since Go has no tagged-union sugar: kind selects which
// fields are meaningful.
type phaseOutcome struct {
	kind        outcomeKind
	nextRequest string // set when kind == outcomeRetry
	stopReason  StopReason
	explanation string
}

func cont() phaseOutcome                 { return phaseOutcome{kind: outcomeContinue} }
func retry(msg string) phaseOutcome      { return phaseOutcome{kind: outcomeRetry, nextRequest: msg} }
func fatal(r StopReason, why string) phaseOutcome {
	return phaseOutcome{kind: outcomeFatal, stopReason: r, explanation: why}
}

// parsePhase implements the edit-tag recognition and partial-response
// rules, plus the termination rules that only parsePhase can detect
// (prose-only responses).
func parsePhase(state *EditState, text string, isPartial bool, maxParseFailures int) phaseOutcome {
	ds, perr := directive.Parse(text, isPartial)

	if isPartial {
		if len(ds) == 0 {
			return retry("your previous response was cut off before providing any edit tags; please resend it in full")
		}
		state.PendingDirectives = append(state.PendingDirectives, ds...)
		return retry("continue from where you left off; the edits you already sent have been kept")
	}

	if perr != nil {
		state.ConsecutiveParseFailures++
		if state.ConsecutiveParseFailures >= maxParseFailures {
			return fatal(StopParseError, perr.Error())
		}
		return retry(parseErrorPrompt(perr))
	}

	if len(ds) == 0 {
		if state.LastBuildError != "" {
			return fatal(StopBuildError, "model produced no further edits but the last build attempt is still failing")
		}
		return fatal(StopSuccess, "model signalled completion with no further edits")
	}

	state.ConsecutiveParseFailures = 0
	state.PendingDirectives = append(state.PendingDirectives, ds...)
	return cont()
}

// applyPhase implements the batch-apply policy and the read-only
// termination rule.
func applyPhase(state *EditState, root string, readOnly ReadOnlyChecker, maxApplyFailures int) phaseOutcome {
	pending := state.PendingDirectives
	state.PendingDirectives = nil

	res := applier.Apply(root, pending, func(path string) bool {
		if readOnly == nil {
			return false
		}
		return readOnly.IsReadOnly(path)
	})

	for path, content := range res.OriginalContents {
		state.RecordOriginal(path, content)
	}
	for _, path := range res.ChangedFiles {
		state.MarkChanged(path)
	}

	for _, f := range res.Failures {
		if f.Reason == applier.ReadOnly {
			return fatal(StopReadOnlyEdit, f.Message)
		}
	}

	if len(res.Applied) > 0 {
		state.ConsecutiveApplyFailures = 0
		state.BlocksAppliedSinceLastVerify += len(res.Applied)
	} else if len(res.Failures) > 0 {
		state.ConsecutiveApplyFailures++
		if state.ConsecutiveApplyFailures >= maxApplyFailures {
			return fatal(StopApplyError, "too many consecutive directive batches failed to apply")
		}
	}

	if len(res.Failures) > 0 {
		return retry(applyFailurePrompt(res.Failures))
	}

	return cont()
}

// verifyPhase runs the build/test oracle and reacts to its outcome. It is
// only invoked by the runner when BlocksAppliedSinceLastVerify > 0.
func verifyPhase(ctx context.Context, state *EditState, req verify.Request, maxBuildFailures int) phaseOutcome {
	out := verify.Verify(ctx, req)
	state.BlocksAppliedSinceLastVerify = 0

	switch out.Status {
	case verify.StatusSuccess:
		state.ResetAllCounters()
		state.LastBuildError = ""
		return fatal(StopSuccess, "build passed")

	case verify.StatusInterrupted:
		return fatal(StopInterrupted, "cancelled during build/verify")

	default: // verify.StatusBuildFailed
		state.LastBuildError = out.LastBuildError
		state.LintDiagnostics = toLintDiagnostics(out.LintDiagnostics)
		state.ConsecutiveBuildFailures++
		if state.ConsecutiveBuildFailures >= maxBuildFailures {
			return fatal(StopBuildError, "build kept failing after the maximum number of corrective attempts")
		}
		return retry(buildFailurePrompt(out))
	}
}

func toLintDiagnostics(in map[string][]verify.Diagnostic) map[string][]LintDiagnostic {
	out := map[string][]LintDiagnostic{}
	for path, ds := range in {
		for _, d := range ds {
			out[path] = append(out[path], LintDiagnostic{Line: d.Line, Col: d.Col, Message: d.Message})
		}
	}
	return out
}
