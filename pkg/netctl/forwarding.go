package netctl

import (
	"context"
	"errors"
	"os/exec"
	"regexp"
	"strings"

	"github.com/coreos/go-iptables/iptables"
)

// defaultInterfaceRE extracts the outbound interface name from the
// textual "ip route show default" output, e.g. "default via 10.0.0.1
// dev eth0 proto dhcp metric 100" -> "eth0" (SPEC_FULL.md §4.1: textual
// parse "dev <iface>" after the default prefix).
var defaultInterfaceRE = regexp.MustCompile(`\bdev\s+(\S+)`)

// DefaultInterface discovers the host's default-route outbound
// interface by parsing `ip route show default`.
func DefaultInterface(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, "ip", "route", "show", "default").CombinedOutput()
	if err != nil {
		return "", &NetworkSetupError{Op: "discover default interface", Err: err}
	}

	m := defaultInterfaceRE.FindStringSubmatch(strings.TrimSpace(string(out)))
	if m == nil {
		return "", &NetworkSetupError{Op: "discover default interface", Err: errNoDefaultRoute}
	}
	return m[1], nil
}

var errNoDefaultRoute = errors.New("no default route found")

// SetupForwarding implements SPEC_FULL.md §4.1 setup_forwarding: enable
// IPv4 forwarding, set FORWARD policy to ACCEPT, discover the
// default-route interface, remove any stale MASQUERADE rule for it,
// then install a fresh one. Idempotent (P4): AppendUnique only adds the
// rule if it is not already present.
//
// Grounded on original_source/crates/orchestrator/src/network.rs and
// maxdollinger-walk.io/pkg/network/nat.go's AppendUnique/idempotent
// pattern.
func SetupForwarding(ctx context.Context, admin IpAdmin, ipt *iptables.IPTables) error {
	if err := admin.Run(ctx, "sh", "-c", "echo 1 > /proc/sys/net/ipv4/ip_forward"); err != nil {
		return &NetworkSetupError{Op: "enable ip_forward", Err: err}
	}

	if err := admin.Run(ctx, "iptables", "-P", "FORWARD", "ACCEPT"); err != nil {
		return &NetworkSetupError{Op: "set FORWARD policy", Err: err}
	}

	iface, err := DefaultInterface(ctx)
	if err != nil {
		return err
	}

	rule := masqueradeRule(iface)
	_ = ipt.Delete("nat", "POSTROUTING", rule...) // drop any stale rule first, errors ignored

	if err := ipt.AppendUnique("nat", "POSTROUTING", rule...); err != nil {
		return &NetworkSetupError{Op: "install MASQUERADE rule for " + iface, Err: err}
	}

	return nil
}

// CleanupForwarding implements SPEC_FULL.md §4.1 cleanup_forwarding:
// remove the MASQUERADE rule; sysctls are deliberately left as-is since
// other services may rely on them.
func CleanupForwarding(ctx context.Context, ipt *iptables.IPTables) error {
	iface, err := DefaultInterface(ctx)
	if err != nil {
		return err
	}
	if err := ipt.Delete("nat", "POSTROUTING", masqueradeRule(iface)...); err != nil {
		return &NetworkSetupError{Op: "remove MASQUERADE rule for " + iface, Err: err}
	}
	return nil
}

func masqueradeRule(iface string) []string {
	return []string{"-o", iface, "-j", "MASQUERADE"}
}
