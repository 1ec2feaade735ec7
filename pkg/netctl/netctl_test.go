package netctl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// mockIpAdmin records every invocation instead of shelling out, per
// SPEC_FULL.md §9's redesign note on testing CLI-exec wrappers.
type mockIpAdmin struct {
	calls [][]string
	fail  map[string]bool
}

func (m *mockIpAdmin) Run(_ context.Context, name string, args ...string) error {
	call := append([]string{name}, args...)
	m.calls = append(m.calls, call)
	if m.fail[name] || (len(args) >= 2 && m.fail[name+" "+args[0]+" "+args[1]]) {
		return errNoDefaultRoute
	}
	return nil
}

func TestSetupTapArgv(t *testing.T) {
	admin := &mockIpAdmin{}
	require.NoError(t, SetupTap(context.Background(), admin, "tap1", "172.16.0.1", 30))

	require.Len(t, admin.calls, 4)
	require.Equal(t, []string{"ip", "link", "del", "tap1"}, admin.calls[0])
	require.Equal(t, []string{"ip", "tuntap", "add", "dev", "tap1", "mode", "tap"}, admin.calls[1])
	require.Equal(t, []string{"ip", "addr", "add", "172.16.0.1/30", "dev", "tap1"}, admin.calls[2])
	require.Equal(t, []string{"ip", "link", "set", "dev", "tap1", "up"}, admin.calls[3])
}

// P5: setup_tap succeeds even when a device with that name already
// exists, i.e. the first delete's failure must not abort setup.
func TestSetupTapIdempotentWhenDeviceExists(t *testing.T) {
	admin := &mockIpAdmin{fail: map[string]bool{"ip link del": true}}
	require.NoError(t, SetupTap(context.Background(), admin, "tap1", "172.16.0.1", 30))
}

func TestCleanupTapAbsenceIsFatal(t *testing.T) {
	admin := &mockIpAdmin{fail: map[string]bool{"ip": true}}
	err := CleanupTap(context.Background(), admin, "tap1")
	require.Error(t, err)

	var netErr *NetworkSetupError
	require.ErrorAs(t, err, &netErr)
}
