package vm

import (
	"context"

	"github.com/techsavvyash/microvmd/pkg/protocol"
)

// queueDepth is the bounded command channel size (SPEC_FULL.md §5: "size
// 32 is a reasonable default").
const queueDepth = 32

// Handle is the caller-facing facade for an actor: it holds only the
// inbound queue's send side (SPEC_FULL.md glossary).
type Handle struct {
	ID       string
	commands chan<- Message
}

// StartVM enqueues StartVm. Returns once the message is accepted onto
// the queue, not once it has been processed. The channel send blocks
// when the queue is full, which is the backpressure SPEC_FULL.md §5
// describes; pass a context with a deadline to bound that wait.
func (h Handle) StartVM(ctx context.Context) error {
	return h.enqueue(ctx, startVmMessage(ctx))
}

// SendCommand enqueues Command(cmd).
func (h Handle) SendCommand(ctx context.Context, cmd protocol.RunCommand) error {
	return h.enqueue(ctx, commandMessage(cmd))
}

// SendWorkspace enqueues WorkspaceCommand(wo).
func (h Handle) SendWorkspace(ctx context.Context, wo protocol.RunWorkspace) error {
	return h.enqueue(ctx, workspaceMessage(wo))
}

// Shutdown enqueues Shutdown.
func (h Handle) Shutdown(ctx context.Context) error {
	return h.enqueue(ctx, shutdownMessage())
}

func (h Handle) enqueue(ctx context.Context, msg Message) error {
	select {
	case h.commands <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
