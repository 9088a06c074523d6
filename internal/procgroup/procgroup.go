// SPDX-License-Identifier: MIT

// Package procgroup spawns subprocesses in their own process group and
// terminates the whole group, so helper processes forked by an encoder
// cannot outlive it.
package procgroup

import (
	"os/exec"
	"syscall"
	"time"
)

// Terminate attempts to gracefully stop a process group. It sends
// SIGTERM, waits up to grace for the process to exit (via the provided
// wait channel), then sends SIGKILL and drains waitCh. It returns the
// error from waitCh. Safe to call on nil commands.
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = Kill(cmd, syscall.SIGTERM)

	select {
	case err := <-waitCh:
		return err
	case <-time.After(grace):
		_ = Kill(cmd, syscall.SIGKILL)
		// The process was blocked; SIGKILL frees the Wait.
		return <-waitCh
	}
}
