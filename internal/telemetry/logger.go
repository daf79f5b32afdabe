// Package telemetry writes structured JSON-lines event logs.
package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is a JSON charm logger tied to the file it writes to.
type Logger struct {
	*log.Logger
	w io.WriteCloser
}

// New opens path for appending and logs at level. An empty path discards
// output.
func New(path, level string) (*Logger, error) {
	lvl := log.InfoLevel
	if strings.TrimSpace(level) != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		lvl = parsed
	}
	var w io.WriteCloser = nopCloser{Writer: io.Discard}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	return NewWriter(w, lvl), nil
}

// NewWriter logs to w. Tests use it with a buffer.
func NewWriter(w io.Writer, level log.Level) *Logger {
	wc, ok := w.(io.WriteCloser)
	if !ok {
		wc = nopCloser{Writer: w}
	}
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339Nano,
		TimeFunction:    func(t time.Time) time.Time { return t.UTC() },
		Formatter:       log.JSONFormatter,
		Level:           level,
	})
	return &Logger{Logger: l, w: wc}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWriter(io.Discard, log.FatalLevel)
}

func (l *Logger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
