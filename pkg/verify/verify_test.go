package verify

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	build   string
	buildOK bool
	test    string
	testOK  bool
}

func (s stubOracle) BuildCommand() (string, bool)                       { return s.build, s.buildOK }
func (s stubOracle) TestCommand(modules, files []string) (string, bool) { return s.test, s.testOK }

func TestVerify_NoCommandConfiguredIsSuccess(t *testing.T) {
	root := t.TempDir()
	out := Verify(context.Background(), Request{Root: root, Oracle: stubOracle{}})
	assert.Equal(t, StatusSuccess, out.Status)
}

func TestVerify_CommandSucceeds(t *testing.T) {
	root := t.TempDir()
	out := Verify(context.Background(), Request{
		Root:    root,
		Oracle:  stubOracle{build: "true", buildOK: true},
		Timeout: 5 * time.Second,
	})
	assert.Equal(t, StatusSuccess, out.Status)
}

func TestVerify_CommandFailsSetsLastBuildError(t *testing.T) {
	root := t.TempDir()
	out := Verify(context.Background(), Request{
		Root:             root,
		Oracle:           stubOracle{build: "echo boom 1>&2; exit 1", buildOK: true},
		Timeout:          5 * time.Second,
		BuildErrorBudget: 1024,
	})
	require.Equal(t, StatusBuildFailed, out.Status)
	assert.Contains(t, out.LastBuildError, "boom")
}

func TestVerify_TruncatesLongOutput(t *testing.T) {
	root := t.TempDir()
	out := Verify(context.Background(), Request{
		Root:             root,
		Oracle:           stubOracle{build: "yes x | head -c 5000; exit 1", buildOK: true},
		Timeout:          5 * time.Second,
		BuildErrorBudget: 100,
	})
	require.Equal(t, StatusBuildFailed, out.Status)
	assert.LessOrEqual(t, len(out.LastBuildError), 100)
}

func TestVerify_CancellationWins(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Verify(ctx, Request{
		Root:    root,
		Oracle:  stubOracle{build: "sleep 1", buildOK: true},
		Timeout: 5 * time.Second,
	})
	assert.Equal(t, StatusInterrupted, out.Status)
}

func TestVerify_UsesTestCommandWhenRequested(t *testing.T) {
	root := t.TempDir()
	out := Verify(context.Background(), Request{
		Root:           root,
		Oracle:         stubOracle{build: "exit 1", buildOK: true, test: "true", testOK: true},
		Timeout:        5 * time.Second,
		UseTestCommand: true,
	})
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "true", out.Command)
}

func TestGoParser_SyntaxError(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "bad.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\nfunc main( {\n"), 0o644))

	p := GoParser{}
	require.True(t, p.SupportsFile("bad.go"))
	ds, err := p.Parse("bad.go", []byte("package main\nfunc main( {\n"))
	require.NoError(t, err)
	require.NotEmpty(t, ds)
	assert.Equal(t, CategorySyntax, ds[0].Category)
}

func TestGoParser_MissingReturn(t *testing.T) {
	src := `package main

func f() int {
}

func main() {}
`
	p := GoParser{}
	ds, err := p.Parse("f.go", []byte(src))
	require.NoError(t, err)
	found := false
	for _, d := range ds {
		if d.Category == CategoryReturn {
			found = true
		}
	}
	assert.True(t, found)
}

func TestVerify_ParseDiagnosticsSurfacedOnlyOnBuildFailure(t *testing.T) {
	root := t.TempDir()
	badPath := "bad.go"
	require.NoError(t, os.WriteFile(filepath.Join(root, badPath), []byte("package main\nfunc main( {\n"), 0o644))

	out := Verify(context.Background(), Request{
		Root:             root,
		ChangedFiles:     []string{badPath},
		Parsers:          []LanguageParser{GoParser{}},
		Oracle:           stubOracle{build: "exit 1", buildOK: true},
		Timeout:          5 * time.Second,
		BuildErrorBudget: 1024,
	})
	require.Equal(t, StatusBuildFailed, out.Status)
	require.Contains(t, out.LintDiagnostics, badPath)
}
