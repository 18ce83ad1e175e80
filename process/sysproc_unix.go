//go:build unix

package process

import (
	"os"
	"os/exec"
	"syscall"
)

const (
	defaultShell     = "/bin/sh"
	defaultShellFlag = "-c"
)

// configureSysProcAttr puts the child in its own process group so that
// termination reaches grandchildren that inherited the pipes.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminate asks the child's process group to exit.
func terminate(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGTERM)
}

// kill forcibly ends the child's process group.
func kill(p *os.Process) error {
	return syscall.Kill(-p.Pid, syscall.SIGKILL)
}

// signalName returns the name of the signal that ended the child, or "".
func signalName(state *os.ProcessState) string {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ws.Signal().String()
	}
	return ""
}
