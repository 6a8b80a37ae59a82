//go:build unix

package remotion

import (
	"os/exec"
	"syscall"
)

// killProcessGroup runs node in its own process group and kills the whole
// group on cancel, so browser processes spawned by the renderer go too.
func killProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
