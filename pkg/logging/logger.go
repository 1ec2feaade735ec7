// Package logging defines the structured logging contract shared by the
// host orchestrator and its backends (SPEC_FULL.md §1.1).
//
// Adapted from pkg/logging/interface.go: the LogLevel and
// LogEntry types, originally imported from pkg/types, are defined here
// directly since pkg/types was dropped along with the Task/Project
// concepts that justified its existence as a shared package.
package logging

import (
	"context"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "DEBUG"
	LogLevelInfo  LogLevel = "INFO"
	LogLevelWarn  LogLevel = "WARN"
	LogLevelError LogLevel = "ERROR"
)

// LogEntry is a single structured log message.
type LogEntry struct {
	Timestamp time.Time
	Level     LogLevel
	Message   string
	VMID      string
	Fields    map[string]interface{}
}

// Logger is implemented by every logging backend (stdout, loki).
type Logger interface {
	Log(ctx context.Context, level LogLevel, message string, fields map[string]interface{}) error
	Debug(ctx context.Context, message string, fields map[string]interface{}) error
	Info(ctx context.Context, message string, fields map[string]interface{}) error
	Warn(ctx context.Context, message string, fields map[string]interface{}) error
	Error(ctx context.Context, message string, fields map[string]interface{}) error
	Close() error
}
