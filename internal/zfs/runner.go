package zfs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner abstracts execution of the zfs(8) binary so the client
// can be exercised in tests without a real pool. The boundary to ZFS is
// entirely textual: a command line in, tab-separated text out.
type CommandRunner interface {
	// Output runs a read-only query and returns its stdout.
	Output(ctx context.Context, args ...string) (string, error)

	// Run performs a side effect (snapshot, destroy, set) and returns
	// an error carrying stderr on failure.
	Run(ctx context.Context, args ...string) error
}

// execRunner shells out to the configured zfs binary.
type execRunner struct {
	command string
}

func (r execRunner) Output(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", commandError(r.command, args, err, stderr.String())
	}
	return stdout.String(), nil
}

func (r execRunner) Run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return commandError(r.command, args, err, stderr.String())
	}
	return nil
}

// commandError folds the command line and captured stderr into one
// error so callers (and the retry classifier) see what zfs reported.
func commandError(command string, args []string, err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return fmt.Errorf("%s %s: %w", command, strings.Join(args, " "), err)
	}
	return fmt.Errorf("%s %s: %w: %s", command, strings.Join(args, " "), err, stderr)
}
