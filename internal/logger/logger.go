// Package logger wraps the galog configuration/initialization.
package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GoogleCloudPlatform/galog"
)

// Options contains the loggers configuration/options.
type Options struct {
	// Ident is the application ident used across loggers.
	Ident string
	// LogFile is the path of the log file.
	LogFile string
	// LogToStderr flags if stderr loggers must be enabled.
	LogToStderr bool
	// Level is the log level.
	Level int
	// Verbosity is the log verbosity level.
	Verbosity int
}

// Init initializes the logger.
func Init(ctx context.Context, opts Options) error {
	var backends []galog.Backend

	galog.SetMinVerbosity(opts.Verbosity)

	if opts.LogFile != "" {
		if _, err := os.Stat(filepath.Dir(opts.LogFile)); err != nil {
			return fmt.Errorf("log file directory for %q: %w", opts.LogFile, err)
		}
		backends = append(backends, galog.NewFileBackend(opts.LogFile))
	}

	if opts.LogToStderr {
		backends = append(backends, galog.NewStderrBackend(os.Stderr))
	}

	for _, be := range backends {
		galog.RegisterBackend(ctx, be)
	}

	level, err := galog.ParseLevel(opts.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	galog.SetLevel(level)
	return nil
}
