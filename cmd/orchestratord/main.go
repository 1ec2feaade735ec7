// Command orchestratord is the host supervisor: it bootstraps host
// networking, then spawns one VM actor (seq 1), registers it in the
// store and starts it (SPEC_FULL.md §2).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coreos/go-iptables/iptables"
	"github.com/techsavvyash/microvmd/pkg/audit"
	auditpg "github.com/techsavvyash/microvmd/pkg/audit/postgres"
	"github.com/techsavvyash/microvmd/pkg/config"
	"github.com/techsavvyash/microvmd/pkg/launcher"
	"github.com/techsavvyash/microvmd/pkg/logging"
	"github.com/techsavvyash/microvmd/pkg/logging/loki"
	"github.com/techsavvyash/microvmd/pkg/logging/stdout"
	"github.com/techsavvyash/microvmd/pkg/netctl"
	"github.com/techsavvyash/microvmd/pkg/vm"
)

func main() {
	configPath := flag.String("config", "/etc/microvmd/config.yaml", "path to the orchestrator config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("orchestratord: %v", err)
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("orchestratord: %v", err)
	}
	defer logger.Close()

	auditStore, err := buildAuditStore(cfg.Audit)
	if err != nil {
		log.Fatalf("orchestratord: %v", err)
	}
	defer auditStore.Close()

	ctx := context.Background()
	admin := netctl.NewExecIpAdmin()

	ipt, err := iptables.New()
	if err != nil {
		log.Fatalf("orchestratord: iptables: %v", err)
	}
	if err := netctl.SetupForwarding(ctx, admin, ipt); err != nil {
		log.Fatalf("orchestratord: network bootstrap: %v", err)
	}

	launcherCfg := launcher.Config{
		FirecrackerBinary: cfg.Firecracker.BinaryPath,
		KernelImagePath:   cfg.Firecracker.KernelImagePath,
		BaseRootfsPath:    cfg.Firecracker.BaseRootfsPath,
		TemplatePath:      cfg.Firecracker.TemplatePath,
		WorkDir:           cfg.Firecracker.WorkDir,
	}

	store := vm.NewStore()
	deps := vm.DefaultDeps(launcherCfg, admin, logger, audit.VMSink{Store: auditStore})

	seq := 1
	handle, err := vm.SpawnVM(seq, deps)
	if err != nil {
		log.Fatalf("orchestratord: spawn vm: %v", err)
	}
	if err := store.Add(handle.ID, handle); err != nil {
		log.Fatalf("orchestratord: %v", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := handle.StartVM(startCtx); err != nil {
		log.Fatalf("orchestratord: start vm: %v", err)
	}

	logger.Info(ctx, "orchestrator bootstrapped", map[string]interface{}{"vm_id": handle.ID})
	select {}
}

func buildLogger(cfg config.ProviderConfig) (logging.Logger, error) {
	switch cfg.Provider {
	case "", "stdout":
		return stdout.New(), nil
	case "loki":
		return loki.New(&loki.Config{
			URL: config.GetStringOrDefault(cfg.Config, "url", ""),
		})
	default:
		return nil, fmt.Errorf("unknown logging provider %q", cfg.Provider)
	}
}

func buildAuditStore(cfg config.ProviderConfig) (audit.Store, error) {
	switch cfg.Provider {
	case "", "none":
		return audit.NoopStore{}, nil
	case "postgres":
		dsn := config.GetStringOrDefault(cfg.Config, "dsn", os.Getenv("AUDIT_DATABASE_URL"))
		store, err := auditpg.NewStore(auditpg.Config{DSN: dsn})
		if err != nil {
			return nil, err
		}
		migrationsPath := config.GetStringOrDefault(cfg.Config, "migrations_path", "migrations")
		if err := store.RunMigrations(migrationsPath); err != nil {
			store.Close()
			return nil, fmt.Errorf("audit: run migrations: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown audit provider %q", cfg.Provider)
	}
}
