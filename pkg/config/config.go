// Package config loads the orchestrator's YAML configuration file: env-var
// expansion via os.Expand, gopkg.in/yaml.v3 unmarshaling, and a pluggable
// ProviderConfig shape for swappable logging/audit backends.
//
// Trimmed to the orchestrator's actual surface: Server/TaskQueue/EventBus/
// Integrations don't apply to a single-host VM supervisor, so only
// Firecracker, logging and audit-store configuration remain. Host
// networking has no config surface of its own: the TAP name (tap<seq>)
// and host link (172.16.0.1/30) are fixed invariants (SPEC_FULL.md §3,
// §4.1), not operator-tunable values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the complete orchestrator configuration.
type Config struct {
	Firecracker FirecrackerConfig `yaml:"firecracker"`
	Logging     ProviderConfig    `yaml:"logging"`
	Audit       ProviderConfig    `yaml:"audit"`
}

// FirecrackerConfig points at the binaries and templates the launcher
// needs (SPEC_FULL.md §4.2).
type FirecrackerConfig struct {
	BinaryPath      string `yaml:"binary_path"`
	KernelImagePath string `yaml:"kernel_image_path"`
	BaseRootfsPath  string `yaml:"base_rootfs_path"`
	TemplatePath    string `yaml:"template_path"`
	WorkDir         string `yaml:"work_dir"`
}

// ProviderConfig selects a pluggable backend (e.g. logging: stdout vs
// loki; audit: postgres vs none) plus its backend-specific settings.
type ProviderConfig struct {
	Provider string                 `yaml:"provider"`
	Config   map[string]interface{} `yaml:"config"`
}

// LoadConfig reads and parses the YAML configuration at path, expanding
// ${VAR}/$VAR environment references first.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := os.Expand(string(data), os.Getenv)

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// Validate checks that the fields required to launch a VM are present.
func (c *Config) Validate() error {
	if c.Firecracker.BinaryPath == "" {
		return fmt.Errorf("firecracker.binary_path is required")
	}
	if c.Firecracker.KernelImagePath == "" {
		return fmt.Errorf("firecracker.kernel_image_path is required")
	}
	if c.Firecracker.BaseRootfsPath == "" {
		return fmt.Errorf("firecracker.base_rootfs_path is required")
	}
	if c.Firecracker.TemplatePath == "" {
		return fmt.Errorf("firecracker.template_path is required")
	}
	if c.Firecracker.WorkDir == "" {
		return fmt.Errorf("firecracker.work_dir is required")
	}
	if c.Logging.Provider == "" {
		return fmt.Errorf("logging.provider is required")
	}
	return nil
}

// GetStringOrDefault retrieves a string from a provider's config map,
// falling back to defaultVal if absent or of the wrong type.
func GetStringOrDefault(cfg map[string]interface{}, key, defaultVal string) string {
	if v, ok := cfg[key].(string); ok {
		return v
	}
	return defaultVal
}

// GetIntOrDefault retrieves an int from a provider's config map (YAML
// numbers decode as int), falling back to defaultVal if absent.
func GetIntOrDefault(cfg map[string]interface{}, key string, defaultVal int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return defaultVal
	}
}
