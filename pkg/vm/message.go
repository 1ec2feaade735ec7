package vm

import (
	"context"

	"github.com/techsavvyash/microvmd/pkg/protocol"
)

// messageKind tags the VmMessage union (SPEC_FULL.md §3).
type messageKind int

const (
	msgStartVm messageKind = iota
	msgCommand
	msgWorkspaceCommand
	msgShutdown
)

// Message is the actor's inbound queue element.
type Message struct {
	kind      messageKind
	ctx       context.Context
	command   protocol.RunCommand
	workspace protocol.RunWorkspace
}

// startVmMessage carries the caller's context through to launch(), so a
// deadline passed to Handle.StartVM bounds not just the enqueue wait but
// the vsock handshake retry inside launch() itself.
func startVmMessage(ctx context.Context) Message { return Message{kind: msgStartVm, ctx: ctx} }

func commandMessage(c protocol.RunCommand) Message {
	return Message{kind: msgCommand, command: c}
}

func workspaceMessage(w protocol.RunWorkspace) Message {
	return Message{kind: msgWorkspaceCommand, workspace: w}
}

func shutdownMessage() Message { return Message{kind: msgShutdown} }
