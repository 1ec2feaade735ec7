package vm

import (
	"context"
	"net"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/techsavvyash/microvmd/pkg/launcher"
	"github.com/techsavvyash/microvmd/pkg/netctl"
	"github.com/techsavvyash/microvmd/pkg/protocol"
)

type recordingAudit struct {
	mu          sync.Mutex
	transitions []Status
}

func newRecordingAudit() *recordingAudit { return &recordingAudit{} }

func (r *recordingAudit) RecordTransition(_ context.Context, _ string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transitions = append(r.transitions, status)
	return nil
}

func (r *recordingAudit) snapshot() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.transitions...)
}

// fakeIpAdmin satisfies netctl.IpAdmin without shelling out.
type fakeIpAdmin struct{}

func (fakeIpAdmin) Run(_ context.Context, _ string, _ ...string) error { return nil }

func TestSpawnVMHappyPathReachesRunning(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()

	audit := newRecordingAudit()
	deps := Deps{
		Launch: func(ctx context.Context, cfg launcher.Config, params launcher.VMParams) (*launcher.Result, error) {
			return &launcher.Result{Cmd: &exec.Cmd{}}, nil
		},
		SetupTap:   func(ctx context.Context, admin netctl.IpAdmin, name, hostIP string, maskBits int) error { return nil },
		CleanupTap: func(ctx context.Context, admin netctl.IpAdmin, name string) error { return nil },
		Connect: func(ctx context.Context, udsPath string) (net.Conn, error) {
			return clientConn, nil
		},
		IpAdmin: fakeIpAdmin{},
		Audit:   audit,
	}

	handle, err := SpawnVM(1, deps)
	require.NoError(t, err)
	require.Equal(t, "vm-1", handle.ID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, handle.StartVM(ctx))

	// drain the Hello the actor's reader goroutine expects nothing special
	// about; just prove the envelope round-trips over the pipe. The guest
	// side then reads the Shutdown frame, since a write on the unbuffered
	// pipe blocks until it is read.
	go func() {
		protocol.SendMsg(serverConn, protocol.Hello())
		protocol.RecvMsg(serverConn)
	}()

	require.NoError(t, handle.Shutdown(ctx))

	// allow the run-loop goroutine to process Shutdown and call cleanup()
	time.Sleep(50 * time.Millisecond)

	require.Contains(t, audit.snapshot(), StatusRunning)
}

func TestSpawnVMRejectsNonPositiveSequence(t *testing.T) {
	_, err := SpawnVM(0, Deps{})
	require.Error(t, err)
}
