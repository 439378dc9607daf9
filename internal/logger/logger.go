// Package logger hands out per-subsystem structured loggers.
//
//	var log = logger.Logger("udp")
//	log.Info("listening", "addr", addr)
//
// Levels and output format come from ASCONF_LOG_LEVEL and ASCONF_LOG_FORMAT.
package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	loggers  sync.Map // subsystem -> *slog.Logger
	handlers sync.Map // subsystem -> *subsystemHandler

	output   io.Writer = os.Stderr
	outputMu sync.RWMutex
)

// Logger returns the logger of a subsystem, creating it on first use.
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}
	cfg := ConfigFromEnv()
	h := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg.Format)
	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(h))
	if !loaded {
		handlers.Store(subsystem, h)
	}
	return actual.(*slog.Logger)
}

// SetLevel changes the level of an existing subsystem logger.
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).setLevel(level)
	}
}

// SetOutput redirects every logger, including the ones already handed out.
func SetOutput(w io.Writer) {
	outputMu.Lock()
	output = w
	outputMu.Unlock()
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}
