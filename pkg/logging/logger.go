// Package logging provides the structured logger shared by every component
// of the loop: a rotated log file plus a human-facing stream, where routine
// diagnostics go to disk only while process steps meant for an operator
// watching a run also go to stdout.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is a workspace-scoped logger backed by a rotating file.
type Logger struct {
	mu     sync.Mutex
	logger *log.Logger
	file   *lumberjack.Logger
	quiet  bool
}

var (
	global     *Logger
	globalOnce sync.Once
)

// Get returns the process-wide logger, creating it on first use. quiet
// suppresses the console mirror of LogProcessStep (used by tests and
// headless invocations).
func Get(quiet bool) *Logger {
	globalOnce.Do(func() {
		dir := filepath.Join(".coderloop")
		_ = os.MkdirAll(dir, 0o755)
		file := &lumberjack.Logger{
			Filename:   filepath.Join(dir, "loop.log"),
			MaxSize:    15,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		global = &Logger{
			logger: log.New(file, "", log.LstdFlags),
			file:   file,
		}
	})
	global.mu.Lock()
	global.quiet = quiet
	global.mu.Unlock()
	return global
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) write(level, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] %s", strings.ToUpper(level), msg)
}

// Debugf logs a debug-level message to the log file only.
func (l *Logger) Debugf(format string, args ...interface{}) { l.write("debug", format, args...) }

// Infof logs an info-level message to the log file only.
func (l *Logger) Infof(format string, args ...interface{}) { l.write("info", format, args...) }

// Warnf logs a warning to the log file only.
func (l *Logger) Warnf(format string, args ...interface{}) { l.write("warn", format, args...) }

// Errorf logs an error to the log file only.
func (l *Logger) Errorf(format string, args ...interface{}) { l.write("error", format, args...) }

// LogProcessStep records a human-facing progress line: it always goes to
// the log file and, unless the logger is quiet, also to stdout so an
// operator watching a run sees loop progress in real time.
func (l *Logger) LogProcessStep(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.write("step", "%s", msg)
	l.mu.Lock()
	quiet := l.quiet
	l.mu.Unlock()
	if !quiet {
		fmt.Println(msg)
	}
}
