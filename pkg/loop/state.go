// Package loop implements the per-task cooperative state machine that
// sequences requestModel -> parsePhase -> applyPhase -> verifyPhase,
// enforces bounded-retry budgets, and emits the final TaskResult.
//
// Structured as a conversation-loop with an explicit retry cycle rather
// than a todo-list orchestration.
package loop

import (
	"sort"

	"github.com/coderloop/coderloop/pkg/directive"
)

// Message is one turn of the model conversation.
type Message struct {
	Role    string
	Content string
}

// ConversationState is the ordered transcript plus the prompt that will be
// sent at the next iteration.
type ConversationState struct {
	Transcript  []Message
	NextRequest string
}

// EditState is the loop's mutable record across iterations.
type EditState struct {
	PendingDirectives []directive.Directive

	ConsecutiveParseFailures int
	ConsecutiveApplyFailures int
	ConsecutiveBuildFailures int

	BlocksAppliedSinceLastVerify int
	LastBuildError               string

	changedFiles     map[string]bool
	OriginalContents map[string]string
	LintDiagnostics  map[string][]LintDiagnostic
}

// LintDiagnostic mirrors verify.Diagnostic without importing pkg/verify
// directly into the state type, keeping EditState a plain data record.
type LintDiagnostic struct {
	Line    int
	Col     int
	Message string
}

// NewEditState returns a zeroed EditState ready for a new task.
func NewEditState() *EditState {
	return &EditState{
		changedFiles:     map[string]bool{},
		OriginalContents: map[string]string{},
		LintDiagnostics:  map[string][]LintDiagnostic{},
	}
}

// MarkChanged adds path to the monotonically-growing changed-files set.
func (s *EditState) MarkChanged(path string) {
	s.changedFiles[path] = true
}

// ChangedFiles returns the current changed-files set as a sorted slice.
func (s *EditState) ChangedFiles() []string {
	out := make([]string, 0, len(s.changedFiles))
	for p := range s.changedFiles {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// RecordOriginal records the pre-task bytes for path the first time it is
// mutated this task; later calls are no-ops.
func (s *EditState) RecordOriginal(path, content string) {
	if _, ok := s.OriginalContents[path]; !ok {
		s.OriginalContents[path] = content
	}
}

// ResetAllCounters zeroes every consecutive-failure counter, the reaction
// to a successful build.
func (s *EditState) ResetAllCounters() {
	s.ConsecutiveParseFailures = 0
	s.ConsecutiveApplyFailures = 0
	s.ConsecutiveBuildFailures = 0
}

// NewConversationState seeds a conversation with the user's goal as the
// first request to send.
func NewConversationState(goal string) *ConversationState {
	return &ConversationState{NextRequest: goal}
}
