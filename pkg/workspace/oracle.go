package workspace

import "strings"

// CommandStore implements the template-lookup half of BuildOracle:
// BuildCommand() and TestCommand(modules, touchedFiles). Actually running the
// command and capturing output is pkg/verify's job (it owns the
// pty/timeout/cancellation plumbing); this type only stores and expands the
// configured templates, keeping command strings separate from the
// execution path that actually runs them.
type CommandStore struct {
	Build string
	Test  string
}

// BuildCommand returns the configured build command template, or ("", false)
// if none is configured. An unconfigured build command is treated as an
// automatic success by the verifier rather than an error.
func (s CommandStore) BuildCommand() (string, bool) {
	cmd := strings.TrimSpace(s.Build)
	return s.Build, cmd != ""
}

// TestCommand expands the configured test command template, substituting
// modules into any {{#modules}}...{{/modules}} block and touchedFiles into
// {{files}}, returning ("", false) when no test command is configured.
func (s CommandStore) TestCommand(modules, touchedFiles []string) (string, bool) {
	cmd := strings.TrimSpace(s.Test)
	if cmd == "" {
		return "", false
	}
	return ExpandTemplate(s.Test, touchedFiles, modules), true
}
