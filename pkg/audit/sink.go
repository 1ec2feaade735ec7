package audit

import (
	"context"

	"github.com/techsavvyash/microvmd/pkg/vm"
)

// VMSink adapts a Store to vm.AuditSink, converting vm.Status to the
// plain string the storage layer persists.
type VMSink struct {
	Store Store
}

func (s VMSink) RecordTransition(ctx context.Context, vmID string, status vm.Status) error {
	return s.Store.RecordTransition(ctx, vmID, string(status))
}
