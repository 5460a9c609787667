package changelog

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	dmp "github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"
)

// contextLines is how many unchanged lines of surrounding context are
// kept around each changed block.
const contextLines = 3

var (
	addedStyle   = color.New(color.FgGreen)
	removedStyle = color.New(color.FgRed)
	headerStyle  = color.New(color.Bold)
)

// Render produces a colorized, context-trimmed unified-style diff of
// original -> updated for path, plus a one-line +added/-removed summary,
// using diffmatchpatch's line-level diff rather than shelling out to an
// external differ.
func Render(path, original, updated string) string {
	differ := dmp.New()
	lineText1, lineText2, lineArray := differ.DiffLinesToChars(original, updated)
	diffs := differ.DiffMain(lineText1, lineText2, false)
	diffs = differ.DiffCharsToLines(diffs, lineArray)

	added, removed := countChanges(diffs)

	var b strings.Builder
	fmt.Fprintln(&b, headerStyle.Sprintf("%s (+%d -%d)", path, added, removed))

	width := terminalWidth()
	for _, block := range contextTrim(diffs) {
		for _, line := range strings.Split(strings.TrimSuffix(block.text, "\n"), "\n") {
			if line == "" {
				continue
			}
			b.WriteString(renderLine(block.op, line, width))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func renderLine(op dmp.Operation, line string, width int) string {
	line = clip(line, width)
	switch op {
	case dmp.DiffInsert:
		return addedStyle.Sprint("+ " + line)
	case dmp.DiffDelete:
		return removedStyle.Sprint("- " + line)
	default:
		return "  " + line
	}
}

func clip(s string, width int) string {
	if width <= 2 || len(s) <= width-2 {
		return s
	}
	return s[:width-3] + "…"
}

func terminalWidth() int {
	if w, _, err := term.GetSize(0); err == nil && w > 0 {
		return w
	}
	return 100
}

func countChanges(diffs []dmp.Diff) (added, removed int) {
	for _, d := range diffs {
		lines := strings.Count(d.Text, "\n")
		switch d.Type {
		case dmp.DiffInsert:
			added += lines
		case dmp.DiffDelete:
			removed += lines
		}
	}
	return added, removed
}

type block struct {
	op   dmp.Operation
	text string
}

// contextTrim collapses runs of unchanged (Equal) blocks longer than
// 2*contextLines down to their first and last contextLines lines, so a
// one-line change in a 2000-line file doesn't dump the whole file. A run
// at the very start or end keeps only the contextLines lines next to the
// change; a diff with no changes at all is left whole.
func contextTrim(diffs []dmp.Diff) []block {
	out := make([]block, 0, len(diffs))
	for i, d := range diffs {
		if d.Type != dmp.DiffEqual {
			out = append(out, block{op: d.Type, text: d.Text})
			continue
		}
		lines := strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n")
		first, last := i == 0, i == len(diffs)-1
		if len(lines) <= 2*contextLines || (first && last) {
			out = append(out, block{op: d.Type, text: d.Text})
			continue
		}
		head := strings.Join(lines[:contextLines], "\n")
		tail := strings.Join(lines[len(lines)-contextLines:], "\n")
		if !first {
			out = append(out, block{op: d.Type, text: head + "\n"})
		}
		out = append(out, block{op: d.Type, text: "  ...\n"})
		if !last {
			out = append(out, block{op: d.Type, text: tail + "\n"})
		}
	}
	return out
}
