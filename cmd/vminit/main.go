// Command vminit is PID 1 inside the micro-VM (SPEC_FULL.md §4.7).
//
// Grounded on original_source/crates/init/src/main.rs: the overall
// mount -> network -> listen -> accept -> message-loop -> shutdown
// sequence is unchanged, reshaped from async Rust into blocking Go
// (there is exactly one connection ever accepted, so no concurrency is
// needed beyond the two syscalls init itself performs).
package main

import (
	"context"
	"log"
	"os"

	"github.com/techsavvyash/microvmd/pkg/guestinit"
)

func main() {
	logger := log.New(os.Stdout, "vminit: ", log.LstdFlags)
	logf := func(msg string) { logger.Println(msg) }

	logf("init started, checking mounts")
	if err := guestinit.MountDrives(); err != nil {
		logf("fatal: " + err.Error())
		guestinit.ShutdownActions()
		return
	}

	logf("mounts complete, configuring networking")
	ctx := context.Background()
	if err := guestinit.SetupNetworking(ctx); err != nil {
		logf("error setting up networking: " + err.Error())
		guestinit.ShutdownActions()
		return
	}

	if !guestinit.VsockDevicePresent() {
		logf("warning: /dev/vsock does not exist, driver may not be loaded")
	}

	listener, err := guestinit.Listen()
	if err != nil {
		logf("failed to bind vsock listener: " + err.Error())
		guestinit.ShutdownActions()
		return
	}
	defer listener.Close()

	logf("listening on cid 3, port 5001")
	conn, err := listener.Accept()
	if err != nil {
		logf("failed to accept vsock connection: " + err.Error())
		guestinit.ShutdownActions()
		return
	}

	logf("connection accepted")
	if err := guestinit.RunMessageLoop(ctx, conn, logf); err != nil {
		logf("message loop terminated: " + err.Error())
	}
	conn.Close()

	guestinit.ShutdownActions()
}
