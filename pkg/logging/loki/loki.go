// Package loki pushes structured log entries to a Grafana Loki instance.
//
// Adapted from the previous pkg/logging/loki/loki.go: the batching push
// pipeline is kept as-is, but the Stream/Query/Health surface — which
// depended on a remote log-query API — is dropped along with TaskID,
// since tasks are not a concept this orchestrator has (SPEC_FULL.md
// Non-goals: no remote query surface).
package loki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/techsavvyash/microvmd/pkg/logging"
)

// Logger implements logging.Logger by batching entries and pushing them
// to Loki's push API.
type Logger struct {
	config      *Config
	client      *http.Client
	batch       []*logging.LogEntry
	batchMu     sync.Mutex
	stopChan    chan struct{}
	flushTicker *time.Ticker
}

// Config holds Loki-specific configuration.
type Config struct {
	URL           string
	BatchSize     int
	BatchInterval time.Duration
	Timeout       time.Duration
	Labels        map[string]string
}

// New creates a Loki-backed logger and starts its background flusher.
func New(config *Config) (*Logger, error) {
	if config.URL == "" {
		return nil, fmt.Errorf("loki: URL is required")
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.BatchInterval == 0 {
		config.BatchInterval = 5 * time.Second
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Labels == nil {
		config.Labels = make(map[string]string)
	}
	if _, exists := config.Labels["service"]; !exists {
		config.Labels["service"] = "microvmd"
	}

	l := &Logger{
		config:      config,
		client:      &http.Client{Timeout: config.Timeout},
		batch:       make([]*logging.LogEntry, 0, config.BatchSize),
		stopChan:    make(chan struct{}),
		flushTicker: time.NewTicker(config.BatchInterval),
	}
	go l.backgroundFlusher()
	return l, nil
}

func (l *Logger) Log(_ context.Context, level logging.LogLevel, message string, fields map[string]interface{}) error {
	entry := &logging.LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Fields:    fields,
	}
	if vmID, ok := fields["vm_id"].(string); ok {
		entry.VMID = vmID
	}

	l.batchMu.Lock()
	l.batch = append(l.batch, entry)
	shouldFlush := len(l.batch) >= l.config.BatchSize
	l.batchMu.Unlock()

	if shouldFlush {
		return l.flush()
	}
	return nil
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

func (l *Logger) flush() error {
	l.batchMu.Lock()
	if len(l.batch) == 0 {
		l.batchMu.Unlock()
		return nil
	}
	entries := l.batch
	l.batch = make([]*logging.LogEntry, 0, l.config.BatchSize)
	l.batchMu.Unlock()

	return l.sendToLoki(entries)
}

func (l *Logger) sendToLoki(entries []*logging.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	streams := make(map[string]*lokiStream)
	for _, entry := range entries {
		labels := l.buildLabels(entry)
		key := serializeLabels(labels)

		stream, exists := streams[key]
		if !exists {
			stream = &lokiStream{Stream: labels, Values: [][]string{}}
			streams[key] = stream
		}
		timestamp := fmt.Sprintf("%d", entry.Timestamp.UnixNano())
		stream.Values = append(stream.Values, []string{timestamp, l.formatLogLine(entry)})
	}

	streamList := make([]*lokiStream, 0, len(streams))
	for _, s := range streams {
		streamList = append(streamList, s)
	}

	jsonData, err := json.Marshal(lokiPushRequest{Streams: streamList})
	if err != nil {
		return fmt.Errorf("loki: marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", l.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("loki: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("loki: push request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("loki: push returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (l *Logger) buildLabels(entry *logging.LogEntry) map[string]string {
	labels := make(map[string]string, len(l.config.Labels)+2)
	for k, v := range l.config.Labels {
		labels[k] = v
	}
	labels["level"] = string(entry.Level)
	if entry.VMID != "" {
		labels["vm_id"] = entry.VMID
	}
	if component, ok := entry.Fields["component"].(string); ok {
		labels["component"] = component
	}
	return labels
}

func (l *Logger) formatLogLine(entry *logging.LogEntry) string {
	logData := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(time.RFC3339Nano),
		"level":     entry.Level,
		"message":   entry.Message,
	}
	if len(entry.Fields) > 0 {
		logData["fields"] = entry.Fields
	}
	line, _ := json.Marshal(logData)
	return string(line)
}

func (l *Logger) backgroundFlusher() {
	for {
		select {
		case <-l.flushTicker.C:
			l.flush()
		case <-l.stopChan:
			l.flush()
			return
		}
	}
}

func (l *Logger) Close() error {
	close(l.stopChan)
	l.flushTicker.Stop()
	return l.flush()
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][]string        `json:"values"`
}

type lokiPushRequest struct {
	Streams []*lokiStream `json:"streams"`
}

func serializeLabels(labels map[string]string) string {
	var buf bytes.Buffer
	buf.WriteString("{")
	first := true
	for k, v := range labels {
		if !first {
			buf.WriteString(",")
		}
		fmt.Fprintf(&buf, "%s=%q", k, v)
		first = false
	}
	buf.WriteString("}")
	return buf.String()
}
