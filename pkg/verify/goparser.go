package verify

import (
	"go/ast"
	"go/importer"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"
)

// GoParser is the LanguageParser for .go files: a go/parser syntax check
// extended with a best-effort go/types pass so RETURN and LOCAL_VAR
// diagnostics (missing return, declared-and-not-used) are reachable
// without a full project type-check, while import- and symbol-resolution
// errors from the unavailable module graph are dropped rather than
// surfaced.
type GoParser struct{}

func (GoParser) SupportsFile(path string) bool {
	return strings.HasSuffix(path, ".go")
}

func (GoParser) Parse(path string, content []byte) ([]Diagnostic, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, content, parser.AllErrors)
	if err != nil {
		return syntaxDiagnostics(path, fset, err), nil
	}

	var diags []Diagnostic
	conf := types.Config{
		Importer: importer.Default(),
		Error:    func(err error) { diags = append(diags, classifyTypeError(path, fset, err)...) },
	}
	info := &types.Info{}
	_, _ = conf.Check(file.Name.Name, fset, []*ast.File{file}, info)

	return diags, nil
}

func syntaxDiagnostics(path string, fset *token.FileSet, err error) []Diagnostic {
	var diags []Diagnostic
	if list, ok := err.(scanner.ErrorList); ok {
		for _, e := range list {
			diags = append(diags, Diagnostic{
				Path:     path,
				Line:     e.Pos.Line,
				Col:      e.Pos.Column,
				Severity: "ERROR",
				Category: CategorySyntax,
				Message:  e.Msg,
			})
		}
		return diags
	}
	diags = append(diags, Diagnostic{Path: path, Severity: "ERROR", Category: CategorySyntax, Message: err.Error()})
	return diags
}

// classifyTypeError buckets a go/types error by message shape. Import- and
// symbol-resolution failures (the common case when checking a single file
// outside its module) are tagged CategoryOther and dropped by
// filterSurfaced upstream.
func classifyTypeError(path string, fset *token.FileSet, err error) []Diagnostic {
	typeErr, ok := err.(types.Error)
	if !ok {
		return nil
	}
	msg := typeErr.Msg
	category := CategoryOther
	switch {
	case strings.Contains(msg, "missing return"):
		category = CategoryReturn
	case strings.Contains(msg, "declared and not used"), strings.Contains(msg, "declared but not used"):
		category = CategoryLocalVar
	case strings.Contains(msg, "could not import"), strings.Contains(msg, "undefined:"), strings.Contains(msg, "undeclared name"):
		category = CategoryOther
	}
	pos := fset.Position(typeErr.Pos)
	return []Diagnostic{{
		Path:     path,
		Line:     pos.Line,
		Col:      pos.Column,
		Severity: "ERROR",
		Category: category,
		Message:  msg,
	}}
}
