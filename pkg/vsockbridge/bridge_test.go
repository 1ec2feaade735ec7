package vsockbridge

import (
	"bufio"
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConnectHandshakeSucceedsOnOK(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "vsock.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		line, _ := bufio.NewReader(conn).ReadString('\n')
		require.Equal(t, "CONNECT 5001\n", line)
		conn.Write([]byte("OK\n"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := Connect(ctx, sockPath)
	require.NoError(t, err)
	defer conn.Close()
}

// S6: the handshake retries until the vsock UDS file exists and OK is
// received, with no hard-coded attempt cap.
func TestConnectRetriesUntilSocketExists(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "vsock.sock")

	resultCh := make(chan error, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	go func() {
		_, err := Connect(ctx, sockPath)
		resultCh <- err
	}()

	time.Sleep(50 * time.Millisecond) // socket still doesn't exist

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		bufio.NewReader(conn).ReadString('\n')
		conn.Write([]byte("OK\n"))
	}()

	require.NoError(t, <-resultCh)
}

func TestConnectRejectsNonOKReply(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "vsock.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan struct{})
	go func() {
		for i := 0; i < 2; i++ {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			bufio.NewReader(conn).ReadString('\n')
			if i == 0 {
				conn.Write([]byte("ERR\n"))
				conn.Close()
				continue
			}
			conn.Write([]byte("OK\n"))
			close(accepted)
			conn.Close()
			return
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := Connect(ctx, sockPath)
	require.NoError(t, err)
	conn.Close()
	<-accepted
}

func TestWaitForSocketCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := WaitForSocket(ctx, filepath.Join(t.TempDir(), "never-created.sock"))
	require.Error(t, err)
}

func TestWaitForSocketDetectsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "already-there")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, WaitForSocket(ctx, path))
}
