package loki

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogFlushesAtBatchSize(t *testing.T) {
	received := make(chan lokiPushRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req lokiPushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		received <- req
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	l, err := New(&Config{
		URL:           server.URL,
		BatchSize:     2,
		BatchInterval: time.Hour,
	})
	require.NoError(t, err)
	defer l.Close()

	require.NoError(t, l.Info(context.Background(), "first", map[string]interface{}{"vm_id": "vm-1"}))
	require.NoError(t, l.Info(context.Background(), "second", map[string]interface{}{"vm_id": "vm-1"}))

	select {
	case req := <-received:
		require.Len(t, req.Streams, 1)
		require.Len(t, req.Streams[0].Values, 2)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for loki push")
	}
}

func TestCloseFlushesRemainingEntries(t *testing.T) {
	received := make(chan lokiPushRequest, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req lokiPushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		received <- req
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	l, err := New(&Config{URL: server.URL, BatchSize: 100, BatchInterval: time.Hour})
	require.NoError(t, err)

	require.NoError(t, l.Warn(context.Background(), "lone entry", nil))
	require.NoError(t, l.Close())

	select {
	case req := <-received:
		require.Len(t, req.Streams[0].Values, 1)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for final flush")
	}
}
