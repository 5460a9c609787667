package loop

import "context"

// StopReason is the closed set of final outcomes for a task.
type StopReason string

const (
	StopSuccess      StopReason = "SUCCESS"
	StopParseError   StopReason = "PARSE_ERROR"
	StopApplyError   StopReason = "APPLY_ERROR"
	StopBuildError   StopReason = "BUILD_ERROR"
	StopReadOnlyEdit StopReason = "READ_ONLY_EDIT"
	StopInterrupted  StopReason = "INTERRUPTED"
	StopInternalErr  StopReason = "INTERNAL_ERROR"
)

// TaskResult is RunTask's return value.
type TaskResult struct {
	TaskID           string
	StopReason       StopReason
	Explanation      string
	ChangedFiles     []string
	OriginalContents map[string]string
	Transcript       []Message
}

// ModelClient is the collaborator that turns a ConversationState into the
// model's next response.
type ModelClient interface {
	Send(ctx context.Context, conv *ConversationState) (text string, isPartial bool, err error)
}

// ReadOnlyChecker is the subset of ContextRepository the loop needs
// directly. The loop does not use resolveFile/editableFiles: the applier
// resolves paths against Options.Root itself.
type ReadOnlyChecker interface {
	IsReadOnly(path string) bool
}

// ConsoleSink receives non-essential progress notifications. A nil sink
// is valid; notifications are then dropped.
type ConsoleSink interface {
	Notify(event string)
}
