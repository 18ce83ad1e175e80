//go:build !unix

package process

import (
	"os"
	"os/exec"
)

const (
	defaultShell     = "cmd"
	defaultShellFlag = "/C"
)

// configureSysProcAttr is a no-op where process groups are unavailable.
func configureSysProcAttr(_ *exec.Cmd) {}

// terminate has no graceful variant here; the child is killed.
func terminate(p *os.Process) error {
	return p.Kill()
}

func kill(p *os.Process) error {
	return p.Kill()
}

func signalName(_ *os.ProcessState) string { return "" }
