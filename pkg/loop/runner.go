package loop

import (
	"context"
	"os"

	"github.com/coderloop/coderloop/pkg/config"
	"github.com/coderloop/coderloop/pkg/logging"
	"github.com/coderloop/coderloop/pkg/verify"
	"github.com/google/uuid"
)

// History is the subset of changelog.History that RunTask needs: writing
// one revertible record per file touched by the task. A nil History skips
// persistence, which keeps tests that don't care about rollback simple.
type History interface {
	RecordTask(taskID, root string, originalContents map[string]string) error
}

// Options bundles everything one RunTask call needs: the goal, the
// workspace to operate on, and the collaborators driving one task.
type Options struct {
	Goal              string
	Root              string
	AcceptImmediately bool

	Model    ModelClient
	ReadOnly ReadOnlyChecker
	Oracle   verify.BuildOracle
	Parsers  []verify.LanguageParser
	Sink     ConsoleSink
	History  History

	// UseTestCommand makes verifyPhase prefer the oracle's configured test
	// command over its plain build command, when one is configured.
	UseTestCommand bool

	// Resume, when non-nil, picks a previously persisted task back up
	// instead of starting a new one with a fresh TaskID and goal.
	Resume *Snapshot

	Config *config.Config
	Logger *logging.Logger
}

// RunTask drives the full requestModel -> parsePhase -> applyPhase ->
// verifyPhase cycle until a fatal outcome is reached. After every
// iteration it persists a Snapshot to StatePath(opts.Root, taskID) so a
// later RunTask with Options.Resume set can continue from there.
func RunTask(ctx context.Context, opts Options) TaskResult {
	var taskID, goal string
	var state *EditState
	var conv *ConversationState
	if opts.Resume != nil {
		taskID = opts.Resume.TaskID
		goal = opts.Resume.Goal
		conv, state = restore(*opts.Resume)
	} else {
		taskID = uuid.NewString()
		goal = opts.Goal
		state = NewEditState()
		conv = NewConversationState(goal)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Get(true)
	}
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	logger.LogProcessStep("task %s: starting", taskID)

	for {
		if ctx.Err() != nil {
			return finish(taskID, opts, fatal(StopInterrupted, "cancelled before requesting the next model turn"), state, conv)
		}

		if err := SaveSnapshot(opts.Root, snapshotOf(taskID, goal, conv, state)); err != nil {
			logger.LogProcessStep("task %s: failed to save resume snapshot: %v", taskID, err)
		}

		text, isPartial, err := opts.Model.Send(ctx, conv)
		if err != nil {
			return finish(taskID, opts, fatal(StopInternalErr, err.Error()), state, conv)
		}
		conv.Transcript = append(conv.Transcript, Message{Role: "assistant", Content: text})
		notify(opts.Sink, "model response received")

		po := parsePhase(state, text, isPartial, cfg.MaxParseFailures)
		if done, result := settle(po, taskID, opts, state, conv, logger, "parse"); done {
			return result
		}
		if po.kind == outcomeRetry {
			conv.NextRequest = po.nextRequest
			conv.Transcript = append(conv.Transcript, Message{Role: "user", Content: po.nextRequest})
			continue
		}

		if ctx.Err() != nil {
			return finish(taskID, opts, fatal(StopInterrupted, "cancelled before applying edits"), state, conv)
		}

		ao := applyPhase(state, opts.Root, opts.ReadOnly, cfg.MaxApplyFailures)
		if done, result := settle(ao, taskID, opts, state, conv, logger, "apply"); done {
			return result
		}
		if ao.kind == outcomeRetry {
			conv.NextRequest = ao.nextRequest
			conv.Transcript = append(conv.Transcript, Message{Role: "user", Content: ao.nextRequest})
			continue
		}

		if ctx.Err() != nil {
			return finish(taskID, opts, fatal(StopInterrupted, "cancelled before verifying the build"), state, conv)
		}

		if state.BlocksAppliedSinceLastVerify == 0 {
			continue
		}

		vo := verifyPhase(ctx, state, verify.Request{
			Root:             opts.Root,
			ChangedFiles:     state.ChangedFiles(),
			Oracle:           opts.Oracle,
			Parsers:          opts.Parsers,
			Timeout:          cfg.BuildTimeout,
			BuildErrorBudget: cfg.BuildErrorBudget,
			UseTestCommand:   opts.UseTestCommand,
		}, cfg.MaxBuildFailures)
		if done, result := settle(vo, taskID, opts, state, conv, logger, "verify"); done {
			return result
		}
		conv.NextRequest = vo.nextRequest
		conv.Transcript = append(conv.Transcript, Message{Role: "user", Content: vo.nextRequest})
	}
}

// settle reports whether outcome terminates the task, logging and building
// the TaskResult if so.
func settle(outcome phaseOutcome, taskID string, opts Options, state *EditState, conv *ConversationState, logger *logging.Logger, phase string) (bool, TaskResult) {
	if outcome.kind != outcomeFatal {
		return false, TaskResult{}
	}
	logger.LogProcessStep("task %s: %s phase ended the task with %s: %s", taskID, phase, outcome.stopReason, outcome.explanation)
	return true, finish(taskID, opts, outcome, state, conv)
}

func finish(taskID string, opts Options, outcome phaseOutcome, state *EditState, conv *ConversationState) TaskResult {
	if opts.History != nil && len(state.OriginalContents) > 0 {
		if err := opts.History.RecordTask(taskID, opts.Root, state.OriginalContents); err != nil && opts.Logger != nil {
			opts.Logger.LogProcessStep("task %s: failed to record change history: %v", taskID, err)
		}
	}
	if outcome.stopReason != StopInterrupted {
		_ = os.Remove(StatePath(opts.Root, taskID))
	}
	return TaskResult{
		TaskID:           taskID,
		StopReason:       outcome.stopReason,
		Explanation:      outcome.explanation,
		ChangedFiles:     state.ChangedFiles(),
		OriginalContents: state.OriginalContents,
		Transcript:       conv.Transcript,
	}
}

func notify(sink ConsoleSink, event string) {
	if sink != nil {
		sink.Notify(event)
	}
}
