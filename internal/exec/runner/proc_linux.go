//go:build linux

package runner

import "syscall"

// procAttr places the child in its own process group so a timeout kill
// reaches descendants, and ties its lifetime to ours.
func procAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
