//go:build windows

package adapter

import (
	"os/exec"
	"strconv"
	"syscall"

	"golang.org/x/sys/windows"
)

func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: windows.CREATE_NEW_PROCESS_GROUP}
}

// Console children ignore polite close requests, so both stages force.
func terminateTree(pid int) error {
	return taskkill(pid)
}

func killTree(pid int) error {
	return taskkill(pid)
}

func taskkill(pid int) error {
	// #nosec G204 - pid comes from a process we started
	return exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(pid)).Run()
}
