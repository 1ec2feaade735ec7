package netctl

import (
	"context"
	"strconv"
)

// SetupTap implements SPEC_FULL.md §4.1 setup_tap: delete any prior
// device by that name (errors ignored), create a TAP in tap mode,
// assign "<hostIP>/<maskBits>", bring the device up.
//
// Grounded on original_source/crates/orchestrator/src/network.rs's
// setup_tap_device.
func SetupTap(ctx context.Context, admin IpAdmin, name, hostIP string, maskBits int) error {
	_ = admin.Run(ctx, "ip", "link", "del", name) // best-effort, errors ignored (P5)

	if err := admin.Run(ctx, "ip", "tuntap", "add", "dev", name, "mode", "tap"); err != nil {
		return &NetworkSetupError{Op: "create tap " + name, Err: err}
	}

	cidr := cidrAddress(hostIP, maskBits)
	if err := admin.Run(ctx, "ip", "addr", "add", cidr, "dev", name); err != nil {
		return &NetworkSetupError{Op: "assign address to " + name, Err: err}
	}

	if err := admin.Run(ctx, "ip", "link", "set", "dev", name, "up"); err != nil {
		return &NetworkSetupError{Op: "bring up " + name, Err: err}
	}

	return nil
}

// CleanupTap implements SPEC_FULL.md §4.1 cleanup_tap: delete the
// device; absence is a fatal error (indicates drift).
func CleanupTap(ctx context.Context, admin IpAdmin, name string) error {
	if err := admin.Run(ctx, "ip", "link", "del", name); err != nil {
		return &NetworkSetupError{Op: "delete tap " + name, Err: err}
	}
	return nil
}

func cidrAddress(hostIP string, maskBits int) string {
	return hostIP + "/" + strconv.Itoa(maskBits)
}
