package verify

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"time"

	"github.com/creack/pty"
)

// BuildOracle is the build/test command half of the verifier's external
// collaborator interface. The verifier only needs the template lookups;
// runShell (below) owns actually executing whichever template comes back.
type BuildOracle interface {
	BuildCommand() (string, bool)
	TestCommand(modules, touchedFiles []string) (string, bool)
}

// ExitInfo reports how a build/test command finished.
type ExitInfo struct {
	ExitCode int
	TimedOut bool
	Canceled bool
}

// Succeeded reports whether the command can be treated as a success.
func (e ExitInfo) Succeeded() bool {
	return e.ExitCode == 0 && !e.TimedOut && !e.Canceled
}

// runShell executes command in cwd, allocating a pty so the child's output
// streams to us line-buffered instead of block-buffering the way a plain
// os/exec pipe would for a non-interactive child. Grounded on the
// teacher's pkg/webui/terminal.go pty.Start usage.
//
// Cancellation takes precedence over timeout: if ctx is already canceled
// when the command finishes, ExitInfo.Canceled is set even if the deadline
// also elapsed. A command that cannot start because ctx is already
// canceled is reported the same way, not as an error.
func runShell(ctx context.Context, command, cwd string, timeout time.Duration) (ExitInfo, string, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, "sh", "-c", command)
	cmd.Dir = cwd

	ptyFile, err := pty.Start(cmd)
	if err != nil {
		if ctx.Err() != nil {
			return ExitInfo{Canceled: true}, "", nil
		}
		return ExitInfo{}, "", err
	}
	defer ptyFile.Close()

	var buf bytes.Buffer
	copyDone := make(chan struct{})
	go func() {
		_, _ = io.Copy(&buf, ptyFile)
		close(copyDone)
	}()
	<-copyDone

	waitErr := cmd.Wait()

	info := ExitInfo{}
	if ctx.Err() != nil {
		info.Canceled = true
	} else if cctx.Err() == context.DeadlineExceeded {
		info.TimedOut = true
	}

	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			info.ExitCode = exitErr.ExitCode()
		} else {
			info.ExitCode = -1
		}
	}

	return info, buf.String(), nil
}
