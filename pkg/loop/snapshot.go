package loop

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Snapshot is the on-disk representation of one task's resumable state:
// enough of ConversationState and EditState to pick the loop back up after
// a restart, written after every iteration so a "coderloop resume" can
// recover at worst one requestModel turn of lost work.
type Snapshot struct {
	TaskID                       string            `json:"task_id"`
	Goal                         string            `json:"goal"`
	Transcript                   []Message         `json:"transcript"`
	NextRequest                  string            `json:"next_request"`
	ConsecutiveParseFailures     int               `json:"consecutive_parse_failures"`
	ConsecutiveApplyFailures     int               `json:"consecutive_apply_failures"`
	ConsecutiveBuildFailures     int               `json:"consecutive_build_failures"`
	BlocksAppliedSinceLastVerify int               `json:"blocks_applied_since_last_verify"`
	LastBuildError               string            `json:"last_build_error"`
	ChangedFiles                 []string          `json:"changed_files"`
	OriginalContents             map[string]string `json:"original_contents"`
}

// StatePath returns the conventional on-disk location for a task's resume
// snapshot under the workspace's bookkeeping directory.
func StatePath(root, taskID string) string {
	return filepath.Join(root, ".coderloop", "state", taskID+".json")
}

// snapshotOf captures conv and state into a Snapshot. PendingDirectives are
// intentionally not preserved across a restart: resuming simply asks the
// model to continue, which regenerates them.
func snapshotOf(taskID, goal string, conv *ConversationState, state *EditState) Snapshot {
	return Snapshot{
		TaskID:                       taskID,
		Goal:                         goal,
		Transcript:                   conv.Transcript,
		NextRequest:                  conv.NextRequest,
		ConsecutiveParseFailures:     state.ConsecutiveParseFailures,
		ConsecutiveApplyFailures:     state.ConsecutiveApplyFailures,
		ConsecutiveBuildFailures:     state.ConsecutiveBuildFailures,
		BlocksAppliedSinceLastVerify: state.BlocksAppliedSinceLastVerify,
		LastBuildError:               state.LastBuildError,
		ChangedFiles:                 state.ChangedFiles(),
		OriginalContents:             state.OriginalContents,
	}
}

// SaveSnapshot atomically writes snap to StatePath(root, snap.TaskID).
func SaveSnapshot(root string, snap Snapshot) error {
	path := StatePath(root, snap.TaskID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating state dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadSnapshot reads the snapshot previously saved for taskID under root.
func LoadSnapshot(root, taskID string) (Snapshot, error) {
	data, err := os.ReadFile(StatePath(root, taskID))
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return snap, nil
}

// restore rebuilds a ConversationState and EditState from snap.
func restore(snap Snapshot) (*ConversationState, *EditState) {
	conv := &ConversationState{Transcript: snap.Transcript, NextRequest: snap.NextRequest}
	state := NewEditState()
	state.ConsecutiveParseFailures = snap.ConsecutiveParseFailures
	state.ConsecutiveApplyFailures = snap.ConsecutiveApplyFailures
	state.ConsecutiveBuildFailures = snap.ConsecutiveBuildFailures
	state.BlocksAppliedSinceLastVerify = snap.BlocksAppliedSinceLastVerify
	state.LastBuildError = snap.LastBuildError
	for _, f := range snap.ChangedFiles {
		state.MarkChanged(f)
	}
	for path, content := range snap.OriginalContents {
		state.RecordOriginal(path, content)
	}
	return conv, state
}
