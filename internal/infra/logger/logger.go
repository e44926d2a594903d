package logger

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// Config selects the log level for the process-wide logger.
type Config struct {
	Debug bool
}

var (
	mu     sync.RWMutex
	global = slog.New(slog.NewTextHandler(io.Discard, nil))
)

// Setup points the global logger at stderr, keeping stdout clean for
// command output and generated files.
func Setup(cfg Config) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})

	mu.Lock()
	global = slog.New(h)
	mu.Unlock()
}

// L returns the process-wide logger. Before Setup it discards
// everything.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}
