package guestinit

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/techsavvyash/microvmd/pkg/protocol"
)

func TestRunCommandCapturesOutputAndExitCode(t *testing.T) {
	out, err := runCommand(context.Background(), protocol.RunCommand{
		Command: "/bin/sh",
		Args:    []string{"-c", "echo out-line; echo err-line 1>&2; exit 3"},
	})
	require.NoError(t, err)
	require.Equal(t, "out-line", out.Output)
	require.Equal(t, "err-line", out.Stderr)
	require.Equal(t, 3, out.ExitCode)
}

func TestRunMessageLoopRepliesToHelloThenShutsDown(t *testing.T) {
	hostConn, guestConn := net.Pipe()
	defer hostConn.Close()

	done := make(chan error, 1)
	go func() {
		done <- RunMessageLoop(context.Background(), guestConn, func(string) {})
	}()

	require.NoError(t, protocol.SendMsg(hostConn, protocol.Hello()))
	reply, err := protocol.RecvMsg(hostConn)
	require.NoError(t, err)
	require.Equal(t, protocol.KindHello, reply.Kind)

	require.NoError(t, protocol.SendMsg(hostConn, protocol.Shutdown()))
	require.NoError(t, <-done)
}
