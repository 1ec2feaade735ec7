// Package vm implements the per-VM actor: a single goroutine that owns
// one Firecracker VM's mutable state and reacts to a bounded inbound
// message queue (SPEC_FULL.md §4.4).
//
// Grounded on original_source/crates/orchestrator/src/{vm.rs,vm_handle.rs}
// for the run-loop shape, and on pkg/vmm/firecracker/firecracker.go for how a Go actor wraps an
// exec.Cmd and a network connection behind a mutex.
package vm

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/techsavvyash/microvmd/pkg/launcher"
	"github.com/techsavvyash/microvmd/pkg/logging"
	"github.com/techsavvyash/microvmd/pkg/netctl"
	"github.com/techsavvyash/microvmd/pkg/protocol"
	"github.com/techsavvyash/microvmd/pkg/vsockbridge"
)

// AuditSink records lifecycle transitions. RecordTransition is called
// synchronously from the actor's run-loop, so a slow implementation
// delays it; a returned error is logged and never fails the run-loop
// (SPEC_FULL.md §4.4 treats audit writes as best-effort).
type AuditSink interface {
	RecordTransition(ctx context.Context, vmID string, status Status) error
}

// Deps are the actor's external collaborators. Exposed as a struct of
// function fields so
// actor_test.go can substitute fakes without spawning a real Firecracker
// process or touching host networking.
type Deps struct {
	Launch       func(ctx context.Context, cfg launcher.Config, params launcher.VMParams) (*launcher.Result, error)
	SetupTap     func(ctx context.Context, admin netctl.IpAdmin, name, hostIP string, maskBits int) error
	CleanupTap   func(ctx context.Context, admin netctl.IpAdmin, name string) error
	Connect      func(ctx context.Context, udsPath string) (net.Conn, error)
	IpAdmin      netctl.IpAdmin
	LauncherCfg  launcher.Config
	Logger       logging.Logger
	Audit        AuditSink
	TapMaskBits  int
}

// DefaultDeps wires the real launcher/netctl/vsockbridge packages.
func DefaultDeps(launcherCfg launcher.Config, admin netctl.IpAdmin, log logging.Logger, audit AuditSink) Deps {
	return Deps{
		Launch:      launcher.Launch,
		SetupTap:    netctl.SetupTap,
		CleanupTap:  netctl.CleanupTap,
		Connect:     vsockbridge.Connect,
		IpAdmin:     admin,
		LauncherCfg: launcherCfg,
		Logger:      log,
		Audit:       audit,
		TapMaskBits: 30,
	}
}

// Actor owns one VM's mutable state: the Firecracker child process, the
// vsock control connection's write half, and its current lifecycle
// status.
type Actor struct {
	cfg  Config
	deps Deps

	commands chan Message

	mu     sync.Mutex
	status Status
	proc   *os.Process
	conn   net.Conn
}

// SpawnVM creates the actor for sequence number seq, starts its run-loop
// goroutine and returns the caller-facing Handle (SPEC_FULL.md §4.4).
func SpawnVM(seq int, deps Deps) (Handle, error) {
	cfg, err := NewConfig(seq)
	if err != nil {
		return Handle{}, err
	}

	a := &Actor{
		cfg:      cfg,
		deps:     deps,
		commands: make(chan Message, queueDepth),
		status:   StatusNew,
	}
	go a.run()

	return Handle{ID: cfg.ID, commands: a.commands}, nil
}

func (a *Actor) run() {
	for msg := range a.commands {
		switch msg.kind {
		case msgStartVm:
			ctx := msg.ctx
			if ctx == nil {
				ctx = context.Background()
			}
			if err := a.launch(ctx); err != nil {
				a.logf(logging.LogLevelError, "launch failed", err)
				a.cleanup()
				return
			}
		case msgCommand:
			a.sendEnvelope(protocol.NewRunCommand(msg.command))
		case msgWorkspaceCommand:
			a.sendEnvelope(protocol.NewRunWorkspace(msg.workspace))
		case msgShutdown:
			a.sendEnvelope(protocol.Shutdown())
			a.cleanup()
			return
		}
	}
}

// launch implements SPEC_FULL.md §4.4's eight-step boot sequence. ctx
// bounds the vsock handshake retry (deps.Connect); it is the same
// context the caller passed to Handle.StartVM. Its cancellation is not
// passed on to deps.Launch, so the Firecracker child outlives the start
// deadline and is only killed by cleanup().
func (a *Actor) launch(ctx context.Context) error {
	a.setStatus(ctx, StatusLaunching)

	if err := os.Remove(a.cfg.VsockUDSPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("vm: remove stale vsock socket: %w", err)
	}

	if err := a.deps.SetupTap(ctx, a.deps.IpAdmin, a.cfg.TapName, a.cfg.HostIP, a.deps.TapMaskBits); err != nil {
		return fmt.Errorf("vm: setup tap: %w", err)
	}

	result, err := a.deps.Launch(context.WithoutCancel(ctx), a.deps.LauncherCfg, launcher.VMParams{
		ID:            a.cfg.ID,
		APISocketPath: a.cfg.APISocketPath,
		TapName:       a.cfg.TapName,
		MACAddress:    a.cfg.MACString(),
		VsockUDSPath:  a.cfg.VsockUDSPath,
	})
	if err != nil {
		return fmt.Errorf("vm: launch firecracker: %w", err)
	}
	a.mu.Lock()
	a.proc = result.Cmd.Process
	a.mu.Unlock()

	conn, err := a.deps.Connect(ctx, a.cfg.VsockUDSPath)
	if err != nil {
		return fmt.Errorf("vm: connect vsock bridge: %w", err)
	}

	a.mu.Lock()
	a.conn = conn
	a.mu.Unlock()
	a.setStatus(ctx, StatusConnected)

	go a.readLoop(conn)

	a.setStatus(ctx, StatusRunning)
	return nil
}

// sendEnvelope frame-encodes and writes msg under the writer mutex
// (SPEC_FULL.md §4.4). A write failure is logged, not fatal: the guest
// may already be powering down.
func (a *Actor) sendEnvelope(msg protocol.Message) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conn == nil {
		a.logf(logging.LogLevelWarn, "send_envelope with no connection", nil)
		return
	}
	if err := protocol.SendMsg(a.conn, msg); err != nil {
		a.logf(logging.LogLevelError, "send_envelope failed", err)
	}
}

// readLoop continuously receives and dispatches messages from the guest.
// Termination (decode error or EOF) is advisory: the run-loop keeps
// draining its command queue regardless.
func (a *Actor) readLoop(conn net.Conn) {
	for {
		msg, err := protocol.RecvMsg(conn)
		if err != nil {
			a.logf(logging.LogLevelInfo, "reader goroutine terminated", err)
			return
		}
		switch msg.Kind {
		case protocol.KindHello:
			a.logf(logging.LogLevelDebug, "received Hello", nil)
		case protocol.KindCommandOutput:
			a.logf(logging.LogLevelInfo, "received CommandOutput", msg.CommandOutput)
		default:
			a.logf(logging.LogLevelDebug, "received unhandled message", msg.Kind)
		}
	}
}

// cleanup runs on Shutdown: TAP removal, file removal, terminating the
// child if it is still alive (SPEC_FULL.md §4.4).
func (a *Actor) cleanup() {
	ctx := context.Background()
	a.setStatus(ctx, StatusShuttingDown)

	if err := a.deps.CleanupTap(ctx, a.deps.IpAdmin, a.cfg.TapName); err != nil {
		a.logf(logging.LogLevelError, "cleanup: tap removal failed", err)
	}

	a.mu.Lock()
	conn := a.conn
	proc := a.proc
	a.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if proc != nil {
		proc.Kill()
	}

	os.Remove(a.cfg.VsockUDSPath)
	os.Remove(a.cfg.APISocketPath)

	if err := launcher.ArchiveLogs(a.deps.LauncherCfg.WorkDir, a.cfg.ID); err != nil {
		a.logf(logging.LogLevelWarn, "cleanup: archive logs failed", err)
	}

	a.setStatus(ctx, StatusTerminated)
}

func (a *Actor) setStatus(ctx context.Context, s Status) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()

	if a.deps.Audit != nil {
		if err := a.deps.Audit.RecordTransition(ctx, a.cfg.ID, s); err != nil {
			a.logf(logging.LogLevelWarn, "audit write failed", err)
		}
	}
}

func (a *Actor) logf(level logging.LogLevel, message string, detail interface{}) {
	if a.deps.Logger == nil {
		return
	}
	fields := map[string]interface{}{"vm_id": a.cfg.ID}
	if detail != nil {
		fields["detail"] = fmt.Sprintf("%v", detail)
	}
	a.deps.Logger.Log(context.Background(), level, message, fields)
}
