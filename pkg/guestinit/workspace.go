package guestinit

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/techsavvyash/microvmd/pkg/protocol"
)

const workspaceDir = "/tmp/workspace"

// RunWorkspace implements SPEC_FULL.md §4.9: extract an uncompressed tar
// archive into a freshly prepared workspace and run its entrypoint under
// /bin/sh, returning a CommandOutput on success.
//
// Grounded on original_source/crates/init/src/messaging.rs's
// handle_run_workspace/save_upload_payload/run_program.
func RunWorkspace(ctx context.Context, w protocol.RunWorkspace) (protocol.CommandOutput, error) {
	if err := prepareWorkspace(w.Data); err != nil {
		return protocol.CommandOutput{}, &GuestAgentError{Op: "prepare workspace", Err: err}
	}

	entrypoint := filepath.Join(workspaceDir, w.Entrypoint)
	if err := os.Chmod(entrypoint, 0o755); err != nil {
		return protocol.CommandOutput{}, &GuestAgentError{Op: "chmod entrypoint", Err: err}
	}

	cmd := exec.CommandContext(ctx, "/bin/sh", entrypoint)
	cmd.Dir = workspaceDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return protocol.CommandOutput{}, &GuestAgentError{
			Op:  "entrypoint exited with failure",
			Err: fmt.Errorf("%w (stderr: %s)", err, trimUTF8Lossy(stderr.Bytes())),
		}
	}

	return protocol.CommandOutput{
		Output:   trimUTF8Lossy(stdout.Bytes()),
		ExitCode: 0,
		Stderr:   "",
	}, nil
}

// trimUTF8Lossy approximates String::from_utf8_lossy(...).trim() from
// original_source's messaging.rs: invalid UTF-8 is replaced with U+FFFD
// rather than left as raw bytes. Each run of consecutive invalid bytes
// becomes a single U+FFFD, so "\xff\xfe" yields one replacement
// character, not one per byte.
func trimUTF8Lossy(b []byte) string {
	return strings.TrimSpace(strings.ToValidUTF8(string(b), "�"))
}

func prepareWorkspace(data []byte) error {
	if _, err := os.Stat(workspaceDir); err == nil {
		if err := os.RemoveAll(workspaceDir); err != nil {
			return fmt.Errorf("remove existing workspace: %w", err)
		}
	}
	if err := os.MkdirAll(workspaceDir, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	tarPath := filepath.Join(workspaceDir, "code.tar")
	if err := os.WriteFile(tarPath, data, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	cmd := exec.Command("tar", "-xf", "code.tar", "-C", workspaceDir)
	cmd.Dir = workspaceDir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("extract archive: %w: %s", err, out)
	}
	return nil
}
