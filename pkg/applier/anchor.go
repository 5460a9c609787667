package applier

import (
	"fmt"
	"strings"

	"github.com/coderloop/coderloop/pkg/directive"
)

// matchLine reports whether lines[lineNum-1] equals text once outer
// whitespace is trimmed from both sides; internal whitespace is preserved.
func matchLine(lines []string, lineNum int, text string) bool {
	if lineNum < 1 || lineNum > len(lines) {
		return false
	}
	return strings.TrimSpace(lines[lineNum-1]) == strings.TrimSpace(text)
}

// probeShift looks at the lines immediately before and after anchor.Line.
// It returns the signed shift that makes the anchor's text match, but only
// when exactly one of the two neighbors matches: an ambiguous match (both
// match, or neither) is not auto-corrected.
func probeShift(lines []string, anchor directive.Anchor) (int, bool) {
	beforeMatches := matchLine(lines, anchor.Line-1, anchor.Text)
	afterMatches := matchLine(lines, anchor.Line+1, anchor.Text)
	if beforeMatches == afterMatches {
		return 0, false
	}
	if beforeMatches {
		return -1, true
	}
	return 1, true
}

// validateAndCorrectAnchors checks d's anchors against the original file
// lines, applying a ±1 shift to the whole directive when exactly one
// neighboring line uniquely matches. Sentinel anchors always validate.
// Returns (ok, note, failureMessage).
func validateAndCorrectAnchors(d *directive.Directive, lines []string) (bool, string, string) {
	var note string

	if !d.BeginAnchor.Sentinel {
		if !matchLine(lines, d.BeginAnchor.Line, d.BeginAnchor.Text) {
			delta, found := probeShift(lines, d.BeginAnchor)
			if !found {
				return false, "", fmt.Sprintf("%s: beginAnchor expected %q at line %d, found %q", d.Path, d.BeginAnchor.Text, d.BeginAnchor.Line, safeLine(lines, d.BeginAnchor.Line))
			}
			shiftDirective(d, delta)
			note = fmt.Sprintf("%s: shifted directive by %+d after beginAnchor off-by-one", d.Path, delta)
		}
	}

	if d.EndAnchor != nil && !d.EndAnchor.Sentinel {
		if !matchLine(lines, d.EndAnchor.Line, d.EndAnchor.Text) {
			delta, found := probeShift(lines, *d.EndAnchor)
			if !found {
				return false, note, fmt.Sprintf("%s: endAnchor expected %q at line %d, found %q", d.Path, d.EndAnchor.Text, d.EndAnchor.Line, safeLine(lines, d.EndAnchor.Line))
			}
			shiftDirective(d, delta)
			if note == "" {
				note = fmt.Sprintf("%s: shifted directive by %+d after endAnchor off-by-one", d.Path, delta)
			}
		}
	}

	return true, note, ""
}

func safeLine(lines []string, n int) string {
	if n < 1 || n > len(lines) {
		return "<out of range>"
	}
	return lines[n-1]
}

// shiftDirective applies delta uniformly to every line reference in d, used
// when an anchor's off-by-one is auto-corrected.
func shiftDirective(d *directive.Directive, delta int) {
	isInsert := d.IsInsert()
	d.BeginLine += delta
	if !isInsert && d.EndLine != -1 {
		d.EndLine += delta
	} else if isInsert {
		d.EndLine = d.BeginLine - 1
	}
	if !d.BeginAnchor.Sentinel {
		d.BeginAnchor.Line += delta
	}
	if d.EndAnchor != nil && !d.EndAnchor.Sentinel {
		d.EndAnchor.Line += delta
	}
}
