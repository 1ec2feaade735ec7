// Package netctl implements host network bootstrap: IPv4 forwarding and
// NAT (SPEC_FULL.md §4.1) plus per-VM TAP device management.
package netctl

import (
	"context"
	"fmt"
	"os/exec"
)

// IpAdmin is the privileged-execution capability SPEC_FULL.md §9
// recommends wrapping CLI invocations behind, so tests can substitute a
// mock and verify argv instead of shelling out for real.
type IpAdmin interface {
	Run(ctx context.Context, name string, args ...string) error
}

// execIpAdmin runs commands via os/exec against the real host.
type execIpAdmin struct{}

// NewExecIpAdmin returns the production IpAdmin backed by os/exec.
func NewExecIpAdmin() IpAdmin { return execIpAdmin{} }

func (execIpAdmin) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("netctl: %s %v: %w: %s", name, args, err, out)
	}
	return nil
}
