package provision

import (
	"os"
	"os/exec"

	"devbox/internal/config"
	"devbox/internal/shell"
)

var (
	geteuid  = os.Geteuid
	lookPath = exec.LookPath
)

// privileged builds a command prefixed with sudo according to the configured
// mode. sudo resets the environment, so env is passed as VAR=value arguments.
func privileged(mode string, env []string, name string, args ...string) shell.Command {
	if !useSudo(mode) {
		return shell.Command{Name: name, Args: args, Env: env}
	}
	sudoArgs := make([]string, 0, len(env)+len(args)+1)
	sudoArgs = append(sudoArgs, env...)
	sudoArgs = append(sudoArgs, name)
	sudoArgs = append(sudoArgs, args...)
	return shell.Command{Name: "sudo", Args: sudoArgs}
}

func useSudo(mode string) bool {
	switch mode {
	case config.SudoAlways:
		return true
	case config.SudoNever:
		return false
	default:
		if geteuid() == 0 {
			return false
		}
		_, err := lookPath("sudo")
		return err == nil
	}
}
