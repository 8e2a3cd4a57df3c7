package util

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/markusressel/fanhold/internal/ui"
)

// SafeCmdExecution runs a user configured executable. The executable must be owned by root
// and must not be writable by anyone else, since the daemon runs it with root privileges.
func SafeCmdExecution(ctx context.Context, executable string, args []string) (string, error) {
	if _, err := CheckFilePermissionsForExecution(executable); err != nil {
		return "", fmt.Errorf("cannot execute %s: %w", executable, err)
	}
	return runCommand(ctx, executable, args)
}

// RunSystemCommand runs a well known system tool (nvidia-settings, smartctl, ...) found in PATH.
func RunSystemCommand(ctx context.Context, name string, args ...string) (string, error) {
	executable, err := exec.LookPath(name)
	if err != nil {
		return "", err
	}
	return runCommand(ctx, executable, args)
}

func runCommand(ctx context.Context, executable string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, executable, args...)
	out, err := cmd.Output()

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		ui.Debug("Command timed out: %s %s", executable, strings.Join(args, " "))
		return "", ctx.Err()
	}
	if err != nil {
		// smartctl uses its exit code as a bit mask, the output is still valid
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(out) > 0 {
			return strings.TrimSpace(string(out)), exitErr
		}
		ui.Debug("Command failed to execute: %s: %v", executable, err)
		return "", err
	}

	return strings.Trim(string(out), "\n"), nil
}
