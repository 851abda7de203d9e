// Package applog builds the charmbracelet loggers shared by every command.
package applog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a logger writing to w at the named level. An unknown level
// is an error so a typo in a config file does not silence logging.
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		lvl, err = log.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
	}
	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Prefix:          "aksharpad",
	}), nil
}

// Open is New for a path. An empty path means stderr. The returned closer
// must be called on exit; it is a no-op for stderr.
func Open(path, level string) (*log.Logger, io.Closer, error) {
	if path == "" {
		l, err := New(os.Stderr, level)
		return l, io.NopCloser(nil), err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	l, err := New(f, level)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return l, f, nil
}

// Discard is a logger for callers that were given none.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
