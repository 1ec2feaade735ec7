// Package guestinit is the guest-side counterpart to the host orchestrator:
// it runs as PID 1 inside the micro-VM (SPEC_FULL.md §4.7-§4.9).
//
// Grounded on original_source/crates/init/src/{main.rs,mounts.rs,messaging.rs};
// nix's mount()/reboot() become golang.org/x/sys/unix.Mount/Reboot, and
// tokio_vsock becomes github.com/mdlayher/vsock.
package guestinit

import (
	"os"

	"golang.org/x/sys/unix"
)

// MountDrives mounts devtmpfs, procfs and sysfs (SPEC_FULL.md §4.7 step 1-2).
// Mounting /dev is skipped (and EBUSY tolerated) if it is already
// populated; proc/sysfs mount failures are fatal.
func MountDrives() error {
	if _, err := os.Stat("/dev/null"); os.IsNotExist(err) {
		if err := unix.Mount("devtmpfs", "/dev", "devtmpfs", 0, ""); err != nil && err != unix.EBUSY {
			return &GuestAgentError{Op: "mount /dev", Err: err}
		}
	}

	if err := unix.Mount("proc", "/proc", "proc", 0, ""); err != nil {
		return &GuestAgentError{Op: "mount /proc", Err: err}
	}

	if err := unix.Mount("sysfs", "/sys", "sysfs", 0, ""); err != nil {
		return &GuestAgentError{Op: "mount /sys", Err: err}
	}

	return nil
}
