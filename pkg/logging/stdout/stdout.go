// Package stdout is the default logging backend: structured lines written
// to the process's own stdout, matching the existing logging package
// shape but without batching or remote push (those live in the loki
// backend, SPEC_FULL.md §1.1).
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/techsavvyash/microvmd/pkg/logging"
)

// Logger writes one JSON object per line to an underlying writer.
type Logger struct {
	mu  sync.Mutex
	out io.Writer
}

// New returns a Logger writing to os.Stdout.
func New() *Logger {
	return &Logger{out: os.Stdout}
}

// NewWithWriter is used by tests to capture output.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{out: w}
}

func (l *Logger) Log(_ context.Context, level logging.LogLevel, message string, fields map[string]interface{}) error {
	entry := logging.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}
	if vmID, ok := fields["vm_id"].(string); ok {
		entry.VMID = vmID
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("stdout logger: marshal entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}

func (l *Logger) Debug(ctx context.Context, message string, fields map[string]interface{}) error {
	return l.Log(ctx, logging.LogLevelDebug, message, fields)
}

func (l *Logger) Info(ctx context.Context, message string, fields map[string]interface{}) error {
	return l.Log(ctx, logging.LogLevelInfo, message, fields)
}

func (l *Logger) Warn(ctx context.Context, message string, fields map[string]interface{}) error {
	return l.Log(ctx, logging.LogLevelWarn, message, fields)
}

func (l *Logger) Error(ctx context.Context, message string, fields map[string]interface{}) error {
	return l.Log(ctx, logging.LogLevelError, message, fields)
}

func (l *Logger) Close() error { return nil }
