package loop

import (
	"fmt"
	"sort"
	"strings"

	"github.com/coderloop/coderloop/pkg/applier"
	"github.com/coderloop/coderloop/pkg/directive"
	"github.com/coderloop/coderloop/pkg/verify"
)

// parseErrorPrompt embeds the parser's exact message and line/column
// so the model can see precisely what went wrong with its last response.
func parseErrorPrompt(perr *directive.ParseError) string {
	return fmt.Sprintf(
		"your last response had a malformed edit directive at line %d, column %d: %s\nplease resend corrected edit directives.",
		perr.Line, perr.Column, perr.Message,
	)
}

// applyFailurePrompt enumerates every failed directive's path, intended
// range, and reason in plain language.
func applyFailurePrompt(failures []applier.Failure) string {
	var b strings.Builder
	b.WriteString("some of your edits could not be applied:\n")
	for _, f := range failures {
		rng := fmt.Sprintf("%d..%d", f.Directive.BeginLine, f.Directive.EndLine)
		if f.Directive.IsInsert() {
			rng = fmt.Sprintf("insert before %d", f.Directive.BeginLine)
		}
		b.WriteString(fmt.Sprintf("- %s (%s): %s — %s\n", f.Directive.Path, rng, reasonText(f.Reason), f.Message))
	}
	b.WriteString("please resend corrected edits for only the directives listed above.")
	return b.String()
}

func reasonText(r applier.FailureReason) string {
	switch r {
	case applier.FileNotFound:
		return "file does not exist"
	case applier.InvalidLineRange:
		return "line range is out of bounds"
	case applier.AnchorMismatch:
		return "anchor text did not match the file"
	case applier.OverlappingEdits:
		return "overlapped another edit in the same batch"
	case applier.IOError:
		return "could not be written to disk"
	default:
		return string(r)
	}
}

// buildFailurePrompt includes the truncated build output prefix and, when
// present, structured lint diagnostics per file with line:col and message.
func buildFailurePrompt(out verify.Outcome) string {
	var b strings.Builder
	b.WriteString("the build failed after your last edits:\n\n")
	b.WriteString(out.LastBuildError)
	b.WriteString("\n")

	if len(out.LintDiagnostics) > 0 {
		b.WriteString("\nadditional diagnostics:\n")
		paths := make([]string, 0, len(out.LintDiagnostics))
		for p := range out.LintDiagnostics {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			for _, d := range out.LintDiagnostics[p] {
				b.WriteString(fmt.Sprintf("- %s:%d:%d [%s] %s\n", p, d.Line, d.Col, d.Category, d.Message))
			}
		}
	}

	b.WriteString("\nplease send corrective edits.")
	return b.String()
}
