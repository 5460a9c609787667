package applier

import "github.com/coderloop/coderloop/pkg/directive"

// detectOverlaps partitions a file's staged directives into those that
// survive (no conflict) and those rejected for overlapping another
// directive in the same batch.
//
// Two directives overlap when their [lo,hi] ranges intersect, or when an
// insertion's lo falls strictly inside another directive's range. A
// DeleteFile always overlaps with every other directive on the same path.
func detectOverlaps(directives []directive.Directive) (survivors, rejected []directive.Directive) {
	n := len(directives)
	conflicted := make([]bool, n)

	hasDelete := false
	for _, d := range directives {
		if d.Kind == directive.KindDeleteFile {
			hasDelete = true
			break
		}
	}
	if hasDelete && n > 1 {
		for i := range directives {
			conflicted[i] = true
		}
	} else {
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if rangesOverlap(directives[i], directives[j]) {
					conflicted[i] = true
					conflicted[j] = true
				}
			}
		}
	}

	for i, d := range directives {
		if conflicted[i] {
			rejected = append(rejected, d)
		} else {
			survivors = append(survivors, d)
		}
	}
	return survivors, rejected
}

func rangesOverlap(a, b directive.Directive) bool {
	aLo, aHi := a.BeginLine, a.EndLine
	bLo, bHi := b.BeginLine, b.EndLine
	aEmpty := aHi < aLo
	bEmpty := bHi < bLo

	if !aEmpty && !bEmpty {
		return maxInt(aLo, bLo) <= minInt(aHi, bHi)
	}
	if aEmpty && !bEmpty {
		return bLo < aLo && aLo <= bHi
	}
	if bEmpty && !aEmpty {
		return aLo < bLo && bLo <= aHi
	}
	// Both are pure insertions: overlap is defined only via range
	// containment, so two insertions at the same point are not flagged.
	// applyFile preserves their relative batch order in the output.
	return false
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
