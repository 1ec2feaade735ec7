// Package launcher materializes a per-VM Firecracker configuration file
// and spawns the hypervisor process (SPEC_FULL.md §4.2, §6).
package launcher

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/firecracker-microvm/firecracker-go-sdk/client/models"
)

// MachineTemplate mirrors the Firecracker machine-config JSON document.
// Only the fields the orchestrator actually substitutes (SPEC_FULL.md
// §6) are typed via firecracker-go-sdk's client/models sub-structures;
// the other top-level sections listed below pass through opaquely as
// json.RawMessage. A top-level template key that is not a field of this
// struct is dropped when the config is written.
//
// Grounded on original_source/src/lib.rs's FirecrackerConfig and its
// fill_values, and on pkg/vmm/firecracker/firecracker.go
// for which sub-structures are populated by Go code versus left as
// template passthrough.
type MachineTemplate struct {
	BootSource        models.BootSource           `json:"boot-source"`
	Drives            []models.Drive              `json:"drives"`
	MachineConfig     models.MachineConfiguration `json:"machine-config"`
	CPUConfig         json.RawMessage             `json:"cpu-config,omitempty"`
	Balloon           json.RawMessage             `json:"balloon,omitempty"`
	NetworkInterfaces []models.NetworkInterface   `json:"network-interfaces"`
	Vsock             models.Vsock                `json:"vsock"`
	Logger            models.Logger               `json:"logger"`
	Metrics           json.RawMessage             `json:"metrics,omitempty"`
	MMDSConfig        json.RawMessage             `json:"mmds-config,omitempty"`
	Entropy           json.RawMessage             `json:"entropy,omitempty"`
	Pmem              json.RawMessage             `json:"pmem,omitempty"`
	MemoryHotplug     json.RawMessage             `json:"memory-hotplug,omitempty"`
}

// LoadTemplate reads and parses the JSON machine-config template.
func LoadTemplate(path string) (*MachineTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("launcher: read template %s: %w", path, err)
	}
	var tmpl MachineTemplate
	if err := json.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("launcher: parse template %s: %w", path, err)
	}
	return &tmpl, nil
}

// Substitution carries the per-VM values the launcher fills into the
// template (SPEC_FULL.md §4.2).
type Substitution struct {
	KernelImagePath string
	RootFSPath      string
	TapDeviceName   string
	GuestMAC        string
	FirecrackerLog  string
	VsockUDSPath    string
	VCPUCount       int64
	MemSizeMib      int64
}

// Fill substitutes the typed fields; all other template content is left
// untouched.
func (t *MachineTemplate) Fill(s Substitution) {
	t.BootSource.KernelImagePath = &s.KernelImagePath

	if len(t.Drives) == 0 {
		t.Drives = append(t.Drives, models.Drive{})
	}
	t.Drives[0].DriveID = strPtr("rootfs")
	t.Drives[0].PathOnHost = &s.RootFSPath
	t.Drives[0].IsRootDevice = boolPtr(true)
	t.Drives[0].IsReadOnly = boolPtr(false)

	if len(t.NetworkInterfaces) == 0 {
		t.NetworkInterfaces = append(t.NetworkInterfaces, models.NetworkInterface{})
	}
	t.NetworkInterfaces[0].HostDevName = &s.TapDeviceName
	t.NetworkInterfaces[0].GuestMac = s.GuestMAC
	t.NetworkInterfaces[0].IfaceID = strPtr("eth0")

	t.Logger.LogPath = s.FirecrackerLog

	t.Vsock.UdsPath = &s.VsockUDSPath
	t.Vsock.GuestCid = int64Ptr(3)

	if s.VCPUCount > 0 {
		t.MachineConfig.VcpuCount = &s.VCPUCount
	}
	if s.MemSizeMib > 0 {
		t.MachineConfig.MemSizeMib = &s.MemSizeMib
	}
}

// Write serializes the template to path.
func (t *MachineTemplate) Write(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("launcher: encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("launcher: write config %s: %w", path, err)
	}
	return nil
}

func strPtr(s string) *string   { return &s }
func boolPtr(b bool) *bool      { return &b }
func int64Ptr(n int64) *int64   { return &n }
