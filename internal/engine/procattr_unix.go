//go:build unix

package engine

import (
	"os/exec"
	"syscall"
)

// detach puts the benchmark in its own process group. A terminal Ctrl-C is
// sent to the foreground group and must reach only this process.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
