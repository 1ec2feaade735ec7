package guestinit

import (
	"bytes"
	"context"
	"io"
	"os/exec"

	"github.com/techsavvyash/microvmd/pkg/protocol"
)

// RunMessageLoop implements SPEC_FULL.md §4.8: receive messages from conn
// until Shutdown or a recv error, dispatching each to its handler.
func RunMessageLoop(ctx context.Context, conn io.ReadWriter, log func(string)) error {
	for {
		msg, err := protocol.RecvMsg(conn)
		if err != nil {
			return &GuestAgentError{Op: "recv_msg", Err: err}
		}

		switch msg.Kind {
		case protocol.KindHello:
			log("orchestrator said hello, replying")
			if err := protocol.SendMsg(conn, protocol.Hello()); err != nil {
				log("error responding to hello: " + err.Error())
			}

		case protocol.KindRunCommand:
			log("received RunCommand: " + msg.RunCommand.Command)
			out, err := runCommand(ctx, *msg.RunCommand)
			if err != nil {
				log("error running command: " + err.Error())
				continue
			}
			if err := protocol.SendMsg(conn, protocol.NewCommandOutput(out)); err != nil {
				log("error sending command output: " + err.Error())
			}

		case protocol.KindRunWorkspace:
			out, err := RunWorkspace(ctx, *msg.RunWorkspace)
			if err != nil {
				log("error running workspace: " + err.Error())
				continue
			}
			if err := protocol.SendMsg(conn, protocol.NewCommandOutput(out)); err != nil {
				log("error sending workspace output: " + err.Error())
			}

		case protocol.KindShutdown:
			log("shutting down guest")
			return nil

		default:
			log("received unhandled message kind: " + msg.Kind)
		}
	}
}

// runCommand spawns cmd.Command with its args/env/working dir, captures
// stdout and stderr, and reports the exit code (SPEC_FULL.md §4.8,
// extending original_source's output-only CommandOutput with exit_code
// and stderr per DESIGN.md Open Question 1).
func runCommand(ctx context.Context, c protocol.RunCommand) (protocol.CommandOutput, error) {
	workDir := "/"
	if c.WorkingDir != nil {
		workDir = *c.WorkingDir
	}

	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Dir = workDir
	for k, v := range c.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	exitCode := 0
	if exitErr, ok := runErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return protocol.CommandOutput{}, &GuestAgentError{Op: "spawn command", Err: runErr}
	}

	return protocol.CommandOutput{
		Output:   trimUTF8Lossy(stdout.Bytes()),
		ExitCode: exitCode,
		Stderr:   trimUTF8Lossy(stderr.Bytes()),
	}, nil
}
