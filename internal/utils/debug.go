package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	logMu   sync.RWMutex
	logger  = zerolog.Nop()
	logFile *os.File
)

// InitLogger opens a timestamped debug log in dir and keeps at most
// retention log files there (older ones are removed). When verbose is set,
// a console writer on stderr is attached as well.
func InitLogger(dir string, verbose bool, retention int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	name := fmt.Sprintf("debug-%s.log", time.Now().Format("20060102-150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	var out io.Writer = f
	level := zerolog.DebugLevel
	if verbose {
		out = zerolog.MultiLevelWriter(f, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
	}

	logMu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	logger = zerolog.New(out).Level(level).With().Timestamp().Logger()
	logMu.Unlock()

	CleanupLogs(dir, retention)
	return nil
}

// SetLogOutput replaces the logger with one writing to w. Used by headless
// commands and tests.
func SetLogOutput(w io.Writer, level zerolog.Level) {
	logMu.Lock()
	logger = zerolog.New(w).Level(level).With().Timestamp().Logger()
	logMu.Unlock()
}

// CloseLogger flushes and closes the debug log file, if any.
func CloseLogger() {
	logMu.Lock()
	defer logMu.Unlock()
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
	logger = zerolog.Nop()
}

// Log returns the process logger for structured events
func Log() *zerolog.Logger {
	logMu.RLock()
	defer logMu.RUnlock()
	l := logger
	return &l
}

// Debug writes a message to the debug log
func Debug(format string, args ...any) {
	Log().Debug().Msgf(format, args...)
}

// CleanupLogs removes all but the newest keep debug logs in dir.
// keep <= 0 disables cleanup.
func CleanupLogs(dir string, keep int) {
	if keep <= 0 {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	var logs []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "debug-") || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		logs = append(logs, e.Name())
	}
	if len(logs) <= keep {
		return
	}

	// Timestamped names sort chronologically
	sort.Strings(logs)
	for _, name := range logs[:len(logs)-keep] {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			Debug("failed to remove old log %s: %v", name, err)
		}
	}
}
