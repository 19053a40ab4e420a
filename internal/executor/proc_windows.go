//go:build windows

package executor

import (
	"errors"
	"os"
	"os/exec"
)

func defaultShell() (string, string) {
	if comspec := os.Getenv("COMSPEC"); comspec != "" {
		return comspec, "/C"
	}
	return "cmd.exe", "/C"
}

func configureProcess(cmd *exec.Cmd) {}

func killProcess(cmd *exec.Cmd) error {
	if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func exitCode(state *os.ProcessState) int {
	if state == nil {
		return -1
	}
	return state.ExitCode()
}
