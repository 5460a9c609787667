package workspace

import (
	"strings"
)

// ExpandTemplate expands the small recognized token set a BuildOracle
// command template may contain:
//
//	{{files}}              -> space-separated list of touchedFiles
//	{{#modules}} X {{/modules}} -> X repeated once per module, {{value}}
//	                              substituted with the module name, the
//	                              copies concatenated with no separator
//	                              (any separator belongs inside X)
//
// A template containing neither token is returned unchanged.
func ExpandTemplate(tmpl string, touchedFiles, modules []string) string {
	out := tmpl
	if strings.Contains(out, "{{files}}") {
		out = strings.ReplaceAll(out, "{{files}}", strings.Join(touchedFiles, " "))
	}
	out = expandModulesSection(out, modules)
	return out
}

const (
	modulesOpen  = "{{#modules}}"
	modulesClose = "{{/modules}}"
)

func expandModulesSection(tmpl string, modules []string) string {
	start := strings.Index(tmpl, modulesOpen)
	if start == -1 {
		return tmpl
	}
	bodyStart := start + len(modulesOpen)
	end := strings.Index(tmpl[bodyStart:], modulesClose)
	if end == -1 {
		return tmpl
	}
	body := tmpl[bodyStart : bodyStart+end]
	afterClose := bodyStart + end + len(modulesClose)

	rendered := make([]string, 0, len(modules))
	for _, m := range modules {
		rendered = append(rendered, strings.ReplaceAll(body, "{{value}}", m))
	}

	return tmpl[:start] + strings.Join(rendered, "") + expandModulesSection(tmpl[afterClose:], modules)
}
