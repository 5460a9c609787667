package directive

import (
	"regexp"
	"strconv"
	"strings"
)

// Marker syntax:
//
//	<<<EDIT path="pkg/foo.go" type="replace" begin=10 end=12 beginAnchor="10:func Foo() {" endAnchor="12:}">>>
//	... new text ...
//	<<<END>>>
//
// type is one of "replace", "insert", "delete". An insert carries only
// begin (the line it goes before) and beginAnchor; end is implied as
// begin-1. end=$ means the last line of the file. The anchor values "0" and
// "$" are the sentinel start/end-of-file anchors.
var (
	startMarkerRe = regexp.MustCompile(`^\s*<<<EDIT\s+(.*?)\s*>>>\s*$`)
	endMarkerRe   = regexp.MustCompile(`^\s*<<<END>>>\s*$`)
	attrRe        = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|(\S+))`)
)

// partialIndicators are prose fragments that are evidence of truncated,
// not-actually-complete content rather than a real code block.
var partialIndicators = []string{
	"unchanged", "rest of file", "existing code", "content unchanged",
	"other methods", "other functions", "remaining code", "previous code",
	"same as before", "rest unchanged",
}

// looksTruncated reports whether text contains a common "the rest is
// unchanged" placeholder instead of real content.
func looksTruncated(text string) bool {
	lower := strings.ToLower(text)
	if !strings.Contains(lower, "...") {
		return false
	}
	for _, ind := range partialIndicators {
		if strings.Contains(lower, ind) {
			return true
		}
	}
	return false
}

func parseAttrs(raw string) map[string]string {
	attrs := make(map[string]string)
	for _, m := range attrRe.FindAllStringSubmatch(raw, -1) {
		key := m[1]
		val := m[2]
		if val == "" {
			val = m[3]
		}
		attrs[key] = val
	}
	return attrs
}

func parseAnchor(spec string) (Anchor, bool) {
	if spec == "" {
		return Anchor{}, false
	}
	if spec == "0" {
		return SentinelStart(), true
	}
	if spec == "$" {
		return SentinelEnd(), true
	}
	parts := strings.SplitN(spec, ":", 2)
	line, err := strconv.Atoi(parts[0])
	if err != nil {
		return Anchor{}, false
	}
	text := ""
	if len(parts) == 2 {
		text = strings.TrimSpace(parts[1])
	}
	return Anchor{Line: line, Text: text}, true
}

// Parse extracts directives from a raw model response. isPartialResponse
// signals that the upstream stream was cut off before completion. The
// returned parseError is non-nil only for a malformed marker or an edit
// body that holds a "rest unchanged" placeholder; a well-formed response
// with zero directives returns a nil error and an empty slice.
func Parse(response string, isPartialResponse bool) ([]Directive, *ParseError) {
	var directives []Directive
	lines := strings.Split(response, "\n")

	for i := 0; i < len(lines); i++ {
		m := startMarkerRe.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}
		attrs := parseAttrs(m[1])

		d, perr := buildDirective(attrs, i+1)
		if perr != nil {
			return directives, perr
		}

		if d.Kind == KindDeleteFile {
			// DeleteFile carries no body; the next line must be the end marker.
			if i+1 >= len(lines) || !endMarkerRe.MatchString(lines[i+1]) {
				return directives, &ParseError{Line: i + 1, Column: 1, Message: "delete directive must be immediately followed by <<<END>>>"}
			}
			directives = append(directives, d)
			i++
			continue
		}

		// Collect body lines until the end marker.
		bodyStart := i + 1
		j := bodyStart
		found := false
		for ; j < len(lines); j++ {
			if endMarkerRe.MatchString(lines[j]) {
				found = true
				break
			}
		}
		if !found {
			if isPartialResponse {
				// The stream was cut off mid-directive: keep what body text
				// we have so a resumed turn need not re-emit it.
				d.NewText = strings.Join(lines[bodyStart:], "\n")
				directives = append(directives, d)
				return directives, nil
			}
			return directives, &ParseError{Line: i + 1, Column: 1, Message: "unterminated edit block: missing <<<END>>>"}
		}

		body := strings.Join(lines[bodyStart:j], "\n")
		if looksTruncated(body) {
			return directives, &ParseError{Line: bodyStart + 1, Column: 1, Message: "edit body contains a placeholder instead of complete content (e.g. \"... unchanged ...\")"}
		}
		d.NewText = body
		directives = append(directives, d)
		i = j
	}

	return directives, nil
}

func buildDirective(attrs map[string]string, sourceLine int) (Directive, *ParseError) {
	path := attrs["path"]
	if path == "" {
		return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "missing required attribute: path"}
	}
	typ := attrs["type"]

	d := Directive{Path: path, SourceLine: sourceLine}

	switch typ {
	case "delete":
		d.Kind = KindDeleteFile
		return d, nil

	case "insert":
		d.Kind = KindReplaceRange
		beginStr, ok := attrs["begin"]
		if !ok {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "insert directive missing required attribute: begin"}
		}
		begin, err := strconv.Atoi(beginStr)
		if err != nil {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "insert directive has unparseable begin: " + beginStr}
		}
		d.BeginLine = begin
		d.EndLine = begin - 1
		anchorSpec, ok := attrs["beginAnchor"]
		if !ok {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "insert directive missing required attribute: beginAnchor"}
		}
		anchor, ok := parseAnchor(anchorSpec)
		if !ok {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "insert directive has unparseable beginAnchor: " + anchorSpec}
		}
		d.BeginAnchor = anchor
		return d, nil

	case "replace", "":
		d.Kind = KindReplaceRange
		beginStr, hasBegin := attrs["begin"]
		endStr, hasEnd := attrs["end"]
		if !hasBegin || !hasEnd {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "replace directive missing required attribute: begin and end"}
		}
		begin, err := strconv.Atoi(beginStr)
		if err != nil {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "replace directive has unparseable begin: " + beginStr}
		}
		var end int
		if endStr == "$" {
			end = -1 // resolved against file length by the applier
		} else {
			end, err = strconv.Atoi(endStr)
			if err != nil {
				return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "replace directive has unparseable end: " + endStr}
			}
		}
		d.BeginLine = begin
		d.EndLine = end

		beginAnchorSpec, ok := attrs["beginAnchor"]
		if !ok {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "replace directive missing required attribute: beginAnchor"}
		}
		beginAnchor, ok := parseAnchor(beginAnchorSpec)
		if !ok {
			return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "replace directive has unparseable beginAnchor: " + beginAnchorSpec}
		}
		d.BeginAnchor = beginAnchor

		if endAnchorSpec, ok := attrs["endAnchor"]; ok {
			endAnchor, ok := parseAnchor(endAnchorSpec)
			if !ok {
				return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "replace directive has unparseable endAnchor: " + endAnchorSpec}
			}
			d.EndAnchor = &endAnchor
		}
		return d, nil

	default:
		return Directive{}, &ParseError{Line: sourceLine, Column: 1, Message: "unknown directive type: " + typ}
	}
}
