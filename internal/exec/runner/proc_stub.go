//go:build !linux

package runner

import (
	"os"
	"syscall"
)

func procAttr() *syscall.SysProcAttr {
	return nil
}

// killProcessGroup falls back to killing the direct child only; group
// termination needs platform support.
func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}
