// Package workspace implements file resolution, read-only/editable set
// computation driven by gitignore-style rules, and the build/test
// command-template store that together form the workspace's view of the
// repository it is editing.
//
// Uses github.com/sabhiram/go-gitignore for ignore-rule loading.
package workspace

import (
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// essentialIgnorePatterns are always ignored regardless of .gitignore
// contents, so the loop never treats its own bookkeeping as editable.
var essentialIgnorePatterns = []string{
	".coderloop/",
	".coderloop/*",
	".git/",
}

// Repository is the concrete ContextRepository: it resolves relative paths
// against root and classifies files as read-only or editable using
// .gitignore plus an optional extra ignore file.
type Repository struct {
	root        string
	ignoreRules *ignore.GitIgnore
}

// NewRepository builds a Repository rooted at root, loading .gitignore and,
// if present, the extra ignore file named by extraIgnoreFile (relative to
// root; pass "" to skip).
func NewRepository(root, extraIgnoreFile string) (*Repository, error) {
	lines := append([]string{}, essentialIgnorePatterns...)

	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = append(lines, strings.Split(string(data), "\n")...)
	}
	if extraIgnoreFile != "" {
		if data, err := os.ReadFile(filepath.Join(root, extraIgnoreFile)); err == nil {
			lines = append(lines, strings.Split(string(data), "\n")...)
		}
	}

	filtered := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" && !strings.HasPrefix(l, "#") {
			filtered = append(filtered, l)
		}
	}

	return &Repository{root: root, ignoreRules: ignore.CompileIgnoreLines(filtered...)}, nil
}

// Root returns the repository's absolute workspace root.
func (r *Repository) Root() string { return r.root }

// ResolveFile returns the absolute path for relPath under the workspace
// root.
func (r *Repository) ResolveFile(relPath string) string {
	return filepath.Join(r.root, relPath)
}

// IsReadOnly reports whether relPath falls under an ignore rule and must
// therefore be treated as read-only.
func (r *Repository) IsReadOnly(relPath string) bool {
	return r.ignoreRules.MatchesPath(filepath.ToSlash(relPath))
}

// EditableFiles walks the workspace root and returns every file not matched
// by the ignore rules.
func (r *Repository) EditableFiles() ([]string, error) {
	var out []string
	err := filepath.Walk(r.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(r.root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
			return nil
		}
		slashRel := filepath.ToSlash(rel)
		if info.IsDir() {
			if r.ignoreRules.MatchesPath(slashRel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if r.ignoreRules.MatchesPath(slashRel) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}
