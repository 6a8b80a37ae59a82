//go:build !unix

package remotion

import "os/exec"

func killProcessGroup(cmd *exec.Cmd) {}
