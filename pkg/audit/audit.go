// Package audit records VM lifecycle transitions for later inspection
// (SPEC_FULL.md §1.1, §4.4 expansion).
//
// Trimmed from pkg/storage: the Task/Job/Execution
// repositories have no equivalent in this orchestrator (there is no job
// queue — SPEC_FULL.md Non-goals), so only the VM-transition concept
// survives, reshaped from CRUD into an append-only log matching how the
// actor actually uses it: one write per state change, never read back
// inside the hot path.
package audit

import "context"

// Store records VM lifecycle transitions. Implementations must be safe
// for concurrent use: every VM actor goroutine writes to the same Store.
type Store interface {
	RecordTransition(ctx context.Context, vmID string, status string) error
	Close() error
}

// NoopStore discards every transition. Used when no audit backend is
// configured (SPEC_FULL.md's audit store is additive, not required).
type NoopStore struct{}

func (NoopStore) RecordTransition(context.Context, string, string) error { return nil }
func (NoopStore) Close() error                                          { return nil }
