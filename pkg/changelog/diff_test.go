package changelog

import (
	"strings"
	"testing"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/stretchr/testify/assert"
)

func TestRender_ShowsAddedAndRemovedLines(t *testing.T) {
	out := Render("a.txt", "L1\nL2\nL3\n", "L1\nchanged\nL3\n")
	assert.Contains(t, out, "a.txt")
	assert.Contains(t, out, "- L2")
	assert.Contains(t, out, "+ changed")
}

func TestRender_NoChangesHasNoMarkers(t *testing.T) {
	out := Render("a.txt", "same\n", "same\n")
	assert.NotContains(t, out, "+ ")
	assert.NotContains(t, out, "- ")
}

func TestRender_LongUnchangedRunIsTrimmed(t *testing.T) {
	var lines []string
	for i := 0; i < 200; i++ {
		lines = append(lines, "unchanged")
	}
	original := strings.Join(lines, "\n") + "\n"
	updated := strings.Replace(original, "unchanged\nunchanged\nunchanged\nunchanged\nunchanged\n",
		"unchanged\nunchanged\nDIFFERENT\nunchanged\nunchanged\n", 1)

	out := Render("big.txt", original, updated)
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "+ DIFFERENT")
}

func TestClip_TruncatesLongLines(t *testing.T) {
	long := strings.Repeat("x", 200)
	clipped := clip(long, 80)
	assert.LessOrEqual(t, len(clipped), 80)
	assert.True(t, strings.HasSuffix(clipped, "…"))
}

func TestCountChanges_CountsLines(t *testing.T) {
	differ := dmp.New()
	lineText1, lineText2, lineArray := differ.DiffLinesToChars("A\nB\nC\n", "A\nX\nC\n")
	diffs := differ.DiffMain(lineText1, lineText2, false)
	diffs = differ.DiffCharsToLines(diffs, lineArray)

	added, removed := countChanges(diffs)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}
