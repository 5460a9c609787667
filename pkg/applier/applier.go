// Package applier implements the line-edit applier: the centerpiece that
// validates, self-corrects, orders, and atomically applies a batch of
// directives to files on disk, writing each changed file to a temp path
// and renaming it into place so no reader observes a partial write.
package applier

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coderloop/coderloop/pkg/directive"
)

// FailureReason classifies why a single directive could not be applied.
type FailureReason string

const (
	ReadOnly         FailureReason = "READ_ONLY"
	FileNotFound     FailureReason = "FILE_NOT_FOUND"
	InvalidLineRange FailureReason = "INVALID_LINE_RANGE"
	AnchorMismatch   FailureReason = "ANCHOR_MISMATCH"
	OverlappingEdits FailureReason = "OVERLAPPING_EDITS"
	IOError          FailureReason = "IO_ERROR"
)

// Retryable reports whether a controller should retry after this failure.
// Only READ_ONLY is fatal.
func (r FailureReason) Retryable() bool { return r != ReadOnly }

// Failure describes one directive that could not be applied.
type Failure struct {
	Directive directive.Directive
	Reason    FailureReason
	Message   string
}

// Result is the outcome of one Apply call.
type Result struct {
	Applied          []directive.Directive
	Failures         []Failure
	ChangedFiles     []string
	OriginalContents map[string]string // path -> content before this call's first mutation of that path
	Notes            []string          // human-readable notes, e.g. anchor auto-corrections
}

// IsReadOnlyFunc reports whether path is declared read-only by the external
// context.
type IsReadOnlyFunc func(path string) bool

type fileState struct {
	path         string
	exists       bool
	originalText string
	lines        []string // original lines, split without trailing empty entry
	directives   []directive.Directive
	deleteCount  int
}

func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(content, "\n"), "\n")
}

func joinLines(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Apply validates and applies directives against files under root.
// isReadOnly implements the permission check against the workspace's
// editable-file policy.
func Apply(root string, directives []directive.Directive, isReadOnly IsReadOnlyFunc) Result {
	res := Result{OriginalContents: map[string]string{}}
	states := map[string]*fileState{}
	order := []string{}

	getState := func(path string) (*fileState, error) {
		if st, ok := states[path]; ok {
			return st, nil
		}
		full := filepath.Join(root, path)
		data, err := os.ReadFile(full)
		st := &fileState{path: path}
		if err == nil {
			st.exists = true
			st.originalText = string(data)
			st.lines = splitLines(st.originalText)
		} else if !os.IsNotExist(err) {
			return nil, err
		}
		states[path] = st
		order = append(order, path)
		return st, nil
	}

	var deletes []directive.Directive

	for _, d := range directives {
		if isReadOnly != nil && isReadOnly(d.Path) {
			res.Failures = append(res.Failures, Failure{Directive: d, Reason: ReadOnly, Message: "target is read-only"})
			continue
		}

		if d.Kind == directive.KindDeleteFile {
			deletes = append(deletes, d)
			continue
		}

		st, err := getState(d.Path)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Directive: d, Reason: IOError, Message: err.Error()})
			continue
		}

		if !st.exists {
			if d.IsInsert() && d.BeginLine == 1 && d.BeginAnchor.Sentinel && d.BeginAnchor.Line == 0 {
				st.exists = true // create-new-file
			} else {
				res.Failures = append(res.Failures, Failure{Directive: d, Reason: FileNotFound, Message: fmt.Sprintf("%s does not exist", d.Path)})
				continue
			}
		}

		lineCount := len(st.lines)
		lo := d.BeginLine
		hi := d.EndLine
		if hi == -1 {
			hi = lineCount
		}

		validRange := lo >= 1 && lo <= lineCount+1 && (hi == lo-1 || (lo <= hi && hi <= lineCount))
		if !validRange {
			res.Failures = append(res.Failures, Failure{
				Directive: d, Reason: InvalidLineRange,
				Message: fmt.Sprintf("range %d..%d invalid for %s (%d lines)", lo, hi, d.Path, lineCount),
			})
			continue
		}
		d.BeginLine, d.EndLine = lo, hi

		ok, note, reason := validateAndCorrectAnchors(&d, st.lines)
		if note != "" {
			res.Notes = append(res.Notes, note)
		}
		if !ok {
			res.Failures = append(res.Failures, Failure{Directive: d, Reason: AnchorMismatch, Message: reason})
			continue
		}

		st.directives = append(st.directives, d)
	}

	for _, d := range deletes {
		st, err := getState(d.Path)
		if err != nil {
			res.Failures = append(res.Failures, Failure{Directive: d, Reason: IOError, Message: err.Error()})
			continue
		}
		if !st.exists {
			res.Failures = append(res.Failures, Failure{Directive: d, Reason: FileNotFound, Message: fmt.Sprintf("%s does not exist", d.Path)})
			continue
		}
		st.deleteCount++
		st.directives = append(st.directives, d) // tracked for overlap detection only
	}

	for _, path := range order {
		st := states[path]
		applyFile(root, st, &res)
	}

	sort.Strings(res.ChangedFiles)
	return res
}

// applyFile resolves overlaps, applies the surviving directives for one
// file, and writes the result atomically.
func applyFile(root string, st *fileState, res *Result) {
	survivors, overlapped := detectOverlaps(st.directives)
	for _, d := range overlapped {
		res.Failures = append(res.Failures, Failure{Directive: d, Reason: OverlappingEdits, Message: "conflicts with another directive in this batch"})
	}
	if len(survivors) == 0 {
		return
	}

	var deleteDirective *directive.Directive
	var edits []directive.Directive
	for _, d := range survivors {
		if d.Kind == directive.KindDeleteFile {
			dd := d
			deleteDirective = &dd
			continue
		}
		edits = append(edits, d)
	}

	// Descending order within a file: applying higher line numbers first
	// means earlier-processed edits never shift the line numbers that
	// later edits (at lower lo) still refer to.
	sort.SliceStable(edits, func(i, j int) bool {
		return edits[i].BeginLine > edits[j].BeginLine
	})

	lines := append([]string(nil), st.lines...)
	// Two pure insertions at the same lo are allowed to coexist (overlap.go
	// treats them as non-conflicting); insertOffset keeps their original
	// relative order in the output by shifting each later one in the group
	// past the lines already spliced in by its predecessors at that lo.
	insertOffset := make(map[int]int)
	for _, d := range edits {
		lo, hi := d.BeginLine, d.EndLine
		isInsert := hi < lo
		if isInsert {
			shift := insertOffset[lo]
			lo += shift
			hi += shift
		}
		newLines := splitLines(d.NewText)
		before := lines[:lo-1]
		var after []string
		if hi < len(lines) {
			after = lines[hi:]
		}
		combined := make([]string, 0, len(before)+len(newLines)+len(after))
		combined = append(combined, before...)
		combined = append(combined, newLines...)
		combined = append(combined, after...)
		lines = combined
		if isInsert {
			insertOffset[d.BeginLine] += len(newLines)
		}
	}

	newContent := joinLines(lines)
	finalDeleted := false
	if deleteDirective != nil {
		finalDeleted = true
	}

	full := filepath.Join(root, st.path)
	if finalDeleted {
		if err := os.Remove(full); err != nil {
			res.Failures = append(res.Failures, Failure{Directive: *deleteDirective, Reason: IOError, Message: err.Error()})
			return
		}
		recordOriginal(res, st)
		res.Applied = append(res.Applied, *deleteDirective)
		res.ChangedFiles = append(res.ChangedFiles, st.path)
		return
	}

	if len(edits) == 0 {
		return
	}

	if err := atomicWrite(full, newContent); err != nil {
		for _, d := range edits {
			res.Failures = append(res.Failures, Failure{Directive: d, Reason: IOError, Message: err.Error()})
		}
		return
	}

	recordOriginal(res, st)
	res.Applied = append(res.Applied, edits...)
	res.ChangedFiles = append(res.ChangedFiles, st.path)
}

func recordOriginal(res *Result, st *fileState) {
	if _, ok := res.OriginalContents[st.path]; !ok {
		if st.exists {
			res.OriginalContents[st.path] = st.originalText
		} else {
			res.OriginalContents[st.path] = ""
		}
	}
}

// atomicWrite writes content to path via a temp file in the same directory
// followed by a rename, so no reader ever observes a partially-written
// file.
func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".applier-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
