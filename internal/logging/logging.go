// Package logging provides structured logging for the plugin host using
// log/slog. A single process-wide text logger writes to the console; an
// optional rotating file log can be enabled through configuration.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex
)

// currentLogLevel stores the dynamic level shared by all loggers.
var currentLogLevel = new(slog.LevelVar)

var initOnce sync.Once

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// FileConfig controls the optional rotating log file.
type FileConfig struct {
	Enabled    bool
	Path       string
	MaxSize    int // megabytes
	MaxAge     int // days
	MaxBackups int
}

// defaultReplaceAttr customizes level names for the extra levels.
func defaultReplaceAttr(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			if label, exists := levelNames[level]; exists {
				a.Value = slog.StringValue(label)
			}
		} else {
			a.Value = slog.StringValue(fmt.Sprintf("%v", a.Value.Any()))
		}
	}
	return a
}

// Init initializes the global logger writing to stderr. Subsequent calls
// are no-ops.
func Init() {
	initOnce.Do(func() {
		currentLogLevel.Set(slog.LevelInfo)

		handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level:       currentLogLevel,
			ReplaceAttr: defaultReplaceAttr,
		})

		loggerMu.Lock()
		defaultLogger = slog.New(handler)
		loggerMu.Unlock()

		slog.SetDefault(defaultLogger)
	})
}

// SetLevel changes the logging level for all loggers.
func SetLevel(level slog.Level) {
	currentLogLevel.Set(level)
}

// EnableColor switches the console handler to a colorized one using the
// named scheme. Color is disabled when stderr is not a terminal.
func EnableColor(scheme string) error {
	s, ok := schemes[scheme]
	if !ok {
		return fmt.Errorf("unknown color scheme: %s", scheme)
	}
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		slog.Debug("stderr is not a terminal, color output disabled")
		return nil
	}

	handler := newColorHandler(os.Stderr, s, currentLogLevel)

	loggerMu.Lock()
	defaultLogger = slog.New(handler)
	loggerMu.Unlock()

	slog.SetDefault(defaultLogger)
	return nil
}

// EnableFileOutput mirrors log output into a rotating file in addition to
// the console.
func EnableFileOutput(cfg *FileConfig) {
	if cfg == nil || !cfg.Enabled {
		return
	}
	rotated := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxAge:     cfg.MaxAge,
		MaxBackups: cfg.MaxBackups,
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, rotated), &slog.HandlerOptions{
		Level:       currentLogLevel,
		ReplaceAttr: defaultReplaceAttr,
	})

	loggerMu.Lock()
	defaultLogger = slog.New(handler)
	loggerMu.Unlock()

	slog.SetDefault(defaultLogger)
}

// Default returns the globally configured logger. Returns the slog
// default if Init() has not been called.
func Default() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	if defaultLogger == nil {
		return slog.Default()
	}
	return defaultLogger
}

// ForService creates a logger instance with the 'service' attribute added.
func ForService(serviceName string) *slog.Logger {
	return Default().With("service", serviceName)
}

// Fatal logs a message at the custom Fatal level and exits.
func Fatal(msg string, args ...any) {
	Default().Log(context.Background(), LevelFatal, msg, args...)
	os.Exit(1)
}
