package applier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/coderloop/coderloop/pkg/directive"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, root, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
}

func readFixture(t *testing.T, root, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, name))
	require.NoError(t, err)
	return string(data)
}

func notReadOnly(string) bool { return false }

// S1 — clean single-line replace.
func TestApply_S1_CleanSingleLineReplace(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.txt", "L1\nL2\nL3\n")

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "a.txt",
		BeginLine: 2, EndLine: 2, NewText: "Two",
		BeginAnchor: directive.Anchor{Line: 2, Text: "L2"},
	}}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "L1\nTwo\nL3\n", readFixture(t, root, "a.txt"))
	assert.Equal(t, "L1\nL2\nL3\n", res.OriginalContents["a.txt"])
}

// S2 — off-by-one auto-correction.
func TestApply_S2_OffByOneAutoCorrection(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "off1.txt", "A\nB\nC\n")

	endAnchor := directive.Anchor{Line: 1, Text: "B"}
	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "off1.txt",
		BeginLine: 1, EndLine: 1, NewText: "BB",
		BeginAnchor: directive.Anchor{Line: 1, Text: "B"},
		EndAnchor:   &endAnchor,
	}}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "A\nBB\nC\n", readFixture(t, root, "off1.txt"))
	assert.NotEmpty(t, res.Notes)
}

// S3 — overlapping edits reject both.
func TestApply_S3_OverlappingEditsRejectBoth(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "ov1.txt", "A\nB\nC\nD\nE\n")

	ds := []directive.Directive{
		{
			Kind: directive.KindReplaceRange, Path: "ov1.txt",
			BeginLine: 2, EndLine: 4, NewText: "X",
			BeginAnchor: directive.Anchor{Line: 2, Text: "B"},
		},
		{
			Kind: directive.KindReplaceRange, Path: "ov1.txt",
			BeginLine: 3, EndLine: 5, NewText: "Y",
			BeginAnchor: directive.Anchor{Line: 3, Text: "C"},
		},
	}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Applied)
	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.Equal(t, OverlappingEdits, f.Reason)
	}
	assert.Equal(t, "A\nB\nC\nD\nE\n", readFixture(t, root, "ov1.txt"))
}

// S4-equivalent — partial success: one succeeds, one fails with anchor
// mismatch; both are reported, only the successful one writes.
func TestApply_PartialSuccessReportsBoth(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "p.txt", "A\nB\nC\n")

	ds := []directive.Directive{
		{
			Kind: directive.KindReplaceRange, Path: "p.txt",
			BeginLine: 1, EndLine: 1, NewText: "AA",
			BeginAnchor: directive.Anchor{Line: 1, Text: "A"},
		},
		{
			Kind: directive.KindReplaceRange, Path: "p.txt",
			BeginLine: 3, EndLine: 3, NewText: "ZZ",
			BeginAnchor: directive.Anchor{Line: 3, Text: "totally different"},
		},
	}

	res := Apply(root, ds, notReadOnly)
	require.Len(t, res.Applied, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, AnchorMismatch, res.Failures[0].Reason)
	assert.Equal(t, "AA\nB\nC\n", readFixture(t, root, "p.txt"))
}

// S6 — read-only edit is fatal and blocks the write entirely.
func TestApply_S6_ReadOnlyEditIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "ro.txt", "A\nB\n")

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "ro.txt",
		BeginLine: 1, EndLine: 1, NewText: "X",
		BeginAnchor: directive.Anchor{Line: 1, Text: "A"},
	}}

	res := Apply(root, ds, func(path string) bool { return path == "ro.txt" })
	require.Empty(t, res.Applied)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, ReadOnly, res.Failures[0].Reason)
	assert.False(t, res.Failures[0].Reason.Retryable())
	assert.Equal(t, "A\nB\n", readFixture(t, root, "ro.txt"))
}

func TestApply_InsertAtSentinelStartCreatesFile(t *testing.T) {
	root := t.TempDir()

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "new.go",
		BeginLine: 1, EndLine: 0, NewText: "package main\n",
		BeginAnchor: directive.SentinelStart(),
	}}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, "package main\n", readFixture(t, root, "new.go"))
	assert.Equal(t, "", res.OriginalContents["new.go"])
}

func TestApply_InsertAtSentinelEndAppends(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.txt", "L1\nL2\n")

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "a.txt",
		BeginLine: 3, EndLine: 2, NewText: "L3",
		BeginAnchor: directive.SentinelEnd(),
	}}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	assert.Equal(t, "L1\nL2\nL3\n", readFixture(t, root, "a.txt"))
}

// An insert anchored at $ (end-of-file sentinel) against a file that
// doesn't exist must not be treated as create-new-file: that rule is
// specific to the 0 (start-of-file) sentinel.
func TestApply_InsertAtSentinelEndOnMissingFileFails(t *testing.T) {
	root := t.TempDir()

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "gone.txt",
		BeginLine: 1, EndLine: 0, NewText: "X",
		BeginAnchor: directive.SentinelEnd(),
	}}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Applied)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, FileNotFound, res.Failures[0].Reason)
	_, err := os.Stat(filepath.Join(root, "gone.txt"))
	assert.True(t, os.IsNotExist(err))
}

// Two pure insertions at the same anchor don't conflict (overlap.go) and
// must come out in batch order rather than reversed.
func TestApply_TwoInsertsAtSamePointPreserveBatchOrder(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.txt", "L1\nL2\n")

	ds := []directive.Directive{
		{
			Kind: directive.KindReplaceRange, Path: "a.txt",
			BeginLine: 2, EndLine: 1, NewText: "first",
			BeginAnchor: directive.Anchor{Line: 2, Text: "L2"},
		},
		{
			Kind: directive.KindReplaceRange, Path: "a.txt",
			BeginLine: 2, EndLine: 1, NewText: "second",
			BeginAnchor: directive.Anchor{Line: 2, Text: "L2"},
		},
	}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	require.Len(t, res.Applied, 2)
	assert.Equal(t, "L1\nfirst\nsecond\nL2\n", readFixture(t, root, "a.txt"))
}

func TestApply_InvalidLineRange(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "a.txt", "L1\nL2\n")

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "a.txt",
		BeginLine: 5, EndLine: 6, NewText: "X",
		BeginAnchor: directive.Anchor{Line: 5, Text: "L1"},
	}}

	res := Apply(root, ds, notReadOnly)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, InvalidLineRange, res.Failures[0].Reason)
}

func TestApply_DeleteFile(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "gone.txt", "bye\n")

	ds := []directive.Directive{{Kind: directive.KindDeleteFile, Path: "gone.txt"}}
	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	require.Len(t, res.Applied, 1)
	_, err := os.Stat(filepath.Join(root, "gone.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Equal(t, "bye\n", res.OriginalContents["gone.txt"])
}

func TestApply_DeleteAndReplaceSamePathOverlap(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "x.txt", "A\nB\n")

	ds := []directive.Directive{
		{Kind: directive.KindDeleteFile, Path: "x.txt"},
		{
			Kind: directive.KindReplaceRange, Path: "x.txt",
			BeginLine: 1, EndLine: 1, NewText: "Z",
			BeginAnchor: directive.Anchor{Line: 1, Text: "A"},
		},
	}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Applied)
	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.Equal(t, OverlappingEdits, f.Reason)
	}
	assert.Equal(t, "A\nB\n", readFixture(t, root, "x.txt"))
}

func TestApply_NonOverlappingDirectivesOnSameFileBothApply(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "m.txt", "A\nB\nC\nD\n")

	ds := []directive.Directive{
		{
			Kind: directive.KindReplaceRange, Path: "m.txt",
			BeginLine: 1, EndLine: 1, NewText: "AA",
			BeginAnchor: directive.Anchor{Line: 1, Text: "A"},
		},
		{
			Kind: directive.KindReplaceRange, Path: "m.txt",
			BeginLine: 4, EndLine: 4, NewText: "DD",
			BeginAnchor: directive.Anchor{Line: 4, Text: "D"},
		},
	}

	res := Apply(root, ds, notReadOnly)
	require.Empty(t, res.Failures)
	require.Len(t, res.Applied, 2)
	assert.Equal(t, "AA\nB\nC\nDD\n", readFixture(t, root, "m.txt"))
}

func TestApply_AnchorMismatchWithAmbiguousNeighborsIsNotCorrected(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "amb.txt", "X\nB\nX\n")

	ds := []directive.Directive{{
		Kind: directive.KindReplaceRange, Path: "amb.txt",
		BeginLine: 2, EndLine: 2, NewText: "BB",
		BeginAnchor: directive.Anchor{Line: 2, Text: "X"},
	}}

	res := Apply(root, ds, notReadOnly)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, AnchorMismatch, res.Failures[0].Reason)
}
