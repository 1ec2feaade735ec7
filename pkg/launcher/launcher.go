package launcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
)

// LaunchError wraps any failure up to and including spawning the
// Firecracker process (SPEC_FULL.md §7: fatal for the VM).
type LaunchError struct {
	Op  string
	Err error
}

func (e *LaunchError) Error() string { return fmt.Sprintf("launcher: %s: %v", e.Op, e.Err) }
func (e *LaunchError) Unwrap() error  { return e.Err }

// Config is the launcher's static configuration, set once at supervisor
// startup (SPEC_FULL.md §1.1 config surface).
type Config struct {
	FirecrackerBinary string
	KernelImagePath   string
	BaseRootfsPath    string
	TemplatePath      string
	WorkDir           string // holds <id>-vm_config.json, <id>.out.log, <id>.err.log, filesystems/
}

// VMParams are the per-VM values needed to materialize a config and
// spawn Firecracker. Deliberately independent of pkg/vm.Config so this
// package has no dependency on the actor package.
type VMParams struct {
	ID            string
	APISocketPath string
	TapName       string
	MACAddress    string
	VsockUDSPath  string
	VCPUCount     int64
	MemSizeMib    int64
}

// Result carries what the caller (the VM actor) needs to keep alive.
type Result struct {
	Cmd        *exec.Cmd
	ConfigPath string
	RootfsPath string
}

// Launch implements the launcher's part of SPEC_FULL.md §4.4's launch
// steps (1, 4 and 5; the vsock-socket and TAP steps are done by the VM
// actor): copy the base rootfs into filesystems/<id>.ext4, write the
// per-VM config JSON, remove a stale API socket, and exec the
// Firecracker binary with stdout/stderr redirected to <id>.out.log /
// <id>.err.log.
func Launch(ctx context.Context, cfg Config, params VMParams) (*Result, error) {
	filesystemsDir := filepath.Join(cfg.WorkDir, "filesystems")
	if err := os.MkdirAll(filesystemsDir, 0o755); err != nil {
		return nil, &LaunchError{Op: "create filesystems dir", Err: err}
	}

	rootfsPath := filepath.Join(filesystemsDir, params.ID+".ext4")
	if err := copyFile(cfg.BaseRootfsPath, rootfsPath); err != nil {
		return nil, &LaunchError{Op: "copy rootfs", Err: err}
	}

	firecrackerLog := filepath.Join(cfg.WorkDir, params.ID+"-firecracker.log")
	configPath := filepath.Join(cfg.WorkDir, params.ID+"-vm_config.json")

	tmpl, err := LoadTemplate(cfg.TemplatePath)
	if err != nil {
		return nil, &LaunchError{Op: "load template", Err: err}
	}
	tmpl.Fill(Substitution{
		KernelImagePath: cfg.KernelImagePath,
		RootFSPath:      rootfsPath,
		TapDeviceName:   params.TapName,
		GuestMAC:        params.MACAddress,
		FirecrackerLog:  firecrackerLog,
		VsockUDSPath:    params.VsockUDSPath,
		VCPUCount:       params.VCPUCount,
		MemSizeMib:      params.MemSizeMib,
	})
	if err := tmpl.Write(configPath); err != nil {
		return nil, &LaunchError{Op: "write config", Err: err}
	}

	if err := os.Remove(params.APISocketPath); err != nil && !os.IsNotExist(err) {
		return nil, &LaunchError{Op: "remove stale api socket", Err: err}
	}

	stdout, err := os.Create(filepath.Join(cfg.WorkDir, params.ID+".out.log"))
	if err != nil {
		return nil, &LaunchError{Op: "create stdout log", Err: err}
	}
	stderr, err := os.Create(filepath.Join(cfg.WorkDir, params.ID+".err.log"))
	if err != nil {
		stdout.Close()
		return nil, &LaunchError{Op: "create stderr log", Err: err}
	}

	cmd := exec.CommandContext(ctx, cfg.FirecrackerBinary,
		"--api-sock", params.APISocketPath,
		"--enable-pci",
		"--config-file", configPath,
	)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, &LaunchError{Op: "spawn firecracker", Err: err}
	}

	return &Result{Cmd: cmd, ConfigPath: configPath, RootfsPath: rootfsPath}, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create destination %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return out.Close()
}
