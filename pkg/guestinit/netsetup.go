package guestinit

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// SetupNetworking configures the guest's single network interface via the
// /sbin/ip CLI (SPEC_FULL.md §4.7 step 3): lo up, eth0 up, static address
// 172.16.0.2/30, default route via 172.16.0.1, static resolv.conf.
func SetupNetworking(ctx context.Context) error {
	steps := [][]string{
		{"link", "set", "lo", "up"},
		{"link", "set", "eth0", "up"},
		{"addr", "add", "172.16.0.2/30", "dev", "eth0"},
		{"route", "add", "default", "via", "172.16.0.1", "dev", "eth0"},
	}

	for _, args := range steps {
		cmd := exec.CommandContext(ctx, "/sbin/ip", args...)
		if out, err := cmd.CombinedOutput(); err != nil {
			return &GuestAgentError{Op: fmt.Sprintf("ip %v", args), Err: fmt.Errorf("%w: %s", err, out)}
		}
	}

	if err := os.WriteFile("/etc/resolv.conf", []byte("nameserver 8.8.8.8\n"), 0o644); err != nil {
		return &GuestAgentError{Op: "write resolv.conf", Err: err}
	}
	return nil
}
