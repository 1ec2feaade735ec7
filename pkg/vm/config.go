package vm

import "fmt"

// HostIP is the fixed host-side address of every VM's point-to-point TAP
// link (SPEC_FULL.md §3, §6).
const HostIP = "172.16.0.1"

// Config is the immutable identity of one VM, derived entirely from its
// sequence number (SPEC_FULL.md §3).
type Config struct {
	ID            string
	APISocketPath string
	TapName       string
	HostIP        string
	MACAddress    [6]byte
	VsockUDSPath  string
	Seq           int
}

// NewConfig builds the VmConfig for sequence number seq (seq >= 1).
// Grounded on original_source/crates/orchestrator/src/vm.rs's
// VmConfig::new: id "vm-<seq>", api-sock "/tmp/firecracker-<seq>.socket",
// tap "tap<seq>", host IP 172.16.0.1, MAC 06:00:AC:10:00:02.
func NewConfig(seq int) (Config, error) {
	if seq < 1 {
		return Config{}, fmt.Errorf("vm: sequence number must be >= 1, got %d", seq)
	}
	id := fmt.Sprintf("vm-%d", seq)
	return Config{
		ID:            id,
		APISocketPath: fmt.Sprintf("/tmp/firecracker-%d.socket", seq),
		TapName:       fmt.Sprintf("tap%d", seq),
		HostIP:        HostIP,
		MACAddress:    [6]byte{0x06, 0x00, 0xAC, 0x10, 0x00, 0x02},
		VsockUDSPath:  fmt.Sprintf("/tmp/vsock-%s.sock", id),
		Seq:           seq,
	}, nil
}

// MACString renders the MAC in the usual colon-separated hex form.
func (c Config) MACString() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x",
		c.MACAddress[0], c.MACAddress[1], c.MACAddress[2],
		c.MACAddress[3], c.MACAddress[4], c.MACAddress[5])
}
