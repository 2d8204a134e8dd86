package worker

import (
	"errors"
	"os/exec"
	"strings"
)

// runCommand executes a job command through the shell and blocks until it
// exits. A nil return means exit status zero. On failure the combined
// output tail is folded into the error so it lands in last_error.
func runCommand(command string) error {
	cmd := exec.Command("sh", "-c", command)

	out, err := cmd.CombinedOutput()
	if err == nil {
		return nil
	}

	msg := err.Error()
	if trimmed := strings.TrimSpace(string(out)); trimmed != "" {
		msg += ": " + trimmed
	}
	return errors.New(msg)
}
