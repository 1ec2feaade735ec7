package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleConfig = `
firecracker:
  binary_path: ${FC_BIN}
  kernel_image_path: /srv/kernel/vmlinux
  base_rootfs_path: /srv/rootfs/base.ext4
  template_path: /etc/microvmd/template.json
  work_dir: /var/lib/microvmd

logging:
  provider: stdout
  config: {}

audit:
  provider: postgres
  config:
    dsn: postgres://localhost/microvmd
`

func TestLoadConfigExpandsEnvAndValidates(t *testing.T) {
	t.Setenv("FC_BIN", "/usr/local/bin/firecracker")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin/firecracker", cfg.Firecracker.BinaryPath)
	require.Equal(t, "stdout", cfg.Logging.Provider)
	require.Equal(t, "postgres://localhost/microvmd", GetStringOrDefault(cfg.Audit.Config, "dsn", ""))
}

func TestValidateRejectsMissingFields(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.Validate())
}
