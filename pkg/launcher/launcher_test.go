package launcher

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalTemplate = `{
  "boot-source": {"boot_args": "console=ttyS0 reboot=k panic=1 pci=off"},
  "drives": [{}],
  "machine-config": {"vcpu_count": 1, "mem_size_mib": 128},
  "network-interfaces": [{}],
  "vsock": {},
  "logger": {"level": "Debug"},
  "cpu-config": {"some": "opaque-passthrough-value"}
}`

func TestLoadFillWriteTemplate(t *testing.T) {
	dir := t.TempDir()
	tmplPath := filepath.Join(dir, "template.json")
	require.NoError(t, os.WriteFile(tmplPath, []byte(minimalTemplate), 0o644))

	tmpl, err := LoadTemplate(tmplPath)
	require.NoError(t, err)

	tmpl.Fill(Substitution{
		KernelImagePath: "/boot/vmlinux",
		RootFSPath:      "/var/fc/filesystems/vm-1.ext4",
		TapDeviceName:   "tap1",
		GuestMAC:        "06:00:ac:10:00:02",
		FirecrackerLog:  "/var/fc/vm-1-firecracker.log",
		VsockUDSPath:    "/tmp/vsock-vm-1.sock",
	})

	outPath := filepath.Join(dir, "vm-1-vm_config.json")
	require.NoError(t, tmpl.Write(outPath))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	bootSource := decoded["boot-source"].(map[string]interface{})
	require.Equal(t, "/boot/vmlinux", bootSource["kernel_image_path"])

	drives := decoded["drives"].([]interface{})
	drive0 := drives[0].(map[string]interface{})
	require.Equal(t, "/var/fc/filesystems/vm-1.ext4", drive0["path_on_host"])
	require.Equal(t, true, drive0["is_root_device"])

	netIfaces := decoded["network-interfaces"].([]interface{})
	iface0 := netIfaces[0].(map[string]interface{})
	require.Equal(t, "tap1", iface0["host_dev_name"])
	require.Equal(t, "06:00:ac:10:00:02", iface0["guest_mac"])

	vsock := decoded["vsock"].(map[string]interface{})
	require.Equal(t, "/tmp/vsock-vm-1.sock", vsock["uds_path"])

	// opaque passthrough field survives untouched
	require.Equal(t, "opaque-passthrough-value", decoded["cpu-config"].(map[string]interface{})["some"])
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "base.ext4")
	require.NoError(t, os.WriteFile(src, []byte("fake-rootfs-bytes"), 0o644))

	dst := filepath.Join(dir, "vm-1.ext4")
	require.NoError(t, copyFile(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "fake-rootfs-bytes", string(got))
}
