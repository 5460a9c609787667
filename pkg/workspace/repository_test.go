package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkfile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestRepository_IsReadOnlyHonorsGitignore(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, ".gitignore", "vendor/\n*.generated.go\n")
	mkfile(t, root, "vendor/dep.go", "package dep")
	mkfile(t, root, "main.go", "package main")
	mkfile(t, root, "api.generated.go", "package api")

	repo, err := NewRepository(root, "")
	require.NoError(t, err)

	assert.True(t, repo.IsReadOnly("vendor/dep.go"))
	assert.True(t, repo.IsReadOnly("api.generated.go"))
	assert.False(t, repo.IsReadOnly("main.go"))
}

func TestRepository_EssentialPatternsAlwaysIgnored(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, ".coderloop/state/x.json", "{}")

	repo, err := NewRepository(root, "")
	require.NoError(t, err)
	assert.True(t, repo.IsReadOnly(".coderloop/state/x.json"))
}

func TestRepository_ExtraIgnoreFile(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, ".coderloopignore", "secrets.env\n")
	mkfile(t, root, "secrets.env", "KEY=1")
	mkfile(t, root, "main.go", "package main")

	repo, err := NewRepository(root, ".coderloopignore")
	require.NoError(t, err)
	assert.True(t, repo.IsReadOnly("secrets.env"))
	assert.False(t, repo.IsReadOnly("main.go"))
}

func TestRepository_EditableFilesExcludesIgnored(t *testing.T) {
	root := t.TempDir()
	mkfile(t, root, "vendor/dep.go", "package dep")
	mkfile(t, root, "main.go", "package main")
	mkfile(t, root, ".gitignore", "vendor/\n")

	repo, err := NewRepository(root, "")
	require.NoError(t, err)

	files, err := repo.EditableFiles()
	require.NoError(t, err)
	assert.Contains(t, files, "main.go")
	assert.Contains(t, files, ".gitignore")
	for _, f := range files {
		assert.NotContains(t, f, "vendor")
	}
}

func TestRepository_ResolveFile(t *testing.T) {
	root := t.TempDir()
	repo, err := NewRepository(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a/b.go"), repo.ResolveFile("a/b.go"))
}
