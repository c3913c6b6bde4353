// Package detach moves a process into the background. Go cannot fork, so
// the binary is started again in its own session and the parent exits.
package detach

import (
	"os"
	"os/exec"
	"syscall"

	"github.com/pkg/errors"
)

// EnvDetached marks the re-executed child.
const EnvDetached = "XMAS_DETACHED"

// envSystemd is set by systemd for every unit it starts.
const envSystemd = "INVOCATION_ID"

// Needed reports whether the process should still detach: it is not the
// detached child and no service manager is looking after it.
func Needed(getenv func(string) string) bool {
	if getenv == nil {
		getenv = os.Getenv
	}
	return getenv(EnvDetached) == "" && getenv(envSystemd) == ""
}

// Start runs the current executable again with the same arguments in a new
// session, stdio on /dev/null. It returns the child's pid, the caller is
// expected to exit.
func Start() (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, errors.Wrap(err, "failed to find own executable")
	}

	null, err := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	if err != nil {
		return 0, errors.Wrap(err, "failed to open /dev/null")
	}
	defer null.Close()

	cmd := command(exe, os.Args[1:], os.Environ(), null)
	if err := cmd.Start(); err != nil {
		return 0, errors.Wrap(err, "failed to start detached process")
	}
	pid := cmd.Process.Pid
	return pid, errors.Wrap(cmd.Process.Release(), "failed to release detached process")
}

// command builds the detached child: same arguments, marked environment,
// root working directory and a session of its own.
func command(exe string, args, env []string, null *os.File) *exec.Cmd {
	cmd := exec.Command(exe, args...)
	cmd.Env = append(append([]string{}, env...), EnvDetached+"=1")
	cmd.Dir = "/"
	cmd.Stdin = null
	cmd.Stdout = null
	cmd.Stderr = null
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	return cmd
}
