//go:build unix

package server

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func terminate(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGTERM)
}

func kill(cmd *exec.Cmd) error {
	return signalGroup(cmd, unix.SIGKILL)
}

// groupAlive reports whether any member of the group still exists. Zombies
// count until their parent reaps them.
func groupAlive(p *process) bool {
	err := unix.Kill(-p.cmd.Process.Pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func signalGroup(cmd *exec.Cmd, sig unix.Signal) error {
	err := unix.Kill(-cmd.Process.Pid, sig)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}
