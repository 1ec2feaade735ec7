package guestinit

import (
	"os"

	"github.com/mdlayher/vsock"
)

// GuestCID and GuestPort identify this agent's vsock listening address
// (SPEC_FULL.md §4.7 step 5); GuestPort mirrors vsockbridge.GuestPort on
// the host side.
const (
	GuestCID  = 3
	GuestPort = 5001
)

// VsockDevicePresent reports whether /dev/vsock exists. Its absence is
// logged, not fatal: the host-side handshake will simply fail to
// connect.
func VsockDevicePresent() bool {
	_, err := os.Stat("/dev/vsock")
	return err == nil
}

// Listen binds the guest's vsock listener on (GuestCID, GuestPort).
func Listen() (*vsock.Listener, error) {
	l, err := vsock.Listen(GuestPort, nil)
	if err != nil {
		return nil, &GuestAgentError{Op: "bind vsock listener", Err: err}
	}
	return l, nil
}
