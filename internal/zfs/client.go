package zfs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/policy"
)

// ErrNotSnapshot is returned when a destroy is requested for a name
// that does not look like a snapshot. ZFS has a single destroy verb for
// everything, so passing a bare dataset name through would wipe the
// dataset and all of its snapshots.
var ErrNotSnapshot = errors.New("refusing to destroy: name is not a snapshot")

// Client wraps the zfs(8) command-line tool behind a narrow, typed
// surface: list, get-property, set-property, snapshot, destroy. All
// reads go through -H -p (tab-separated, machine-parseable) output.
type Client struct {
	// Command is the zfs binary to invoke, usually just "zfs".
	Command string
	// RetryConfig defines the behavior for transient error handling
	// (busy datasets, suspended pools).
	RetryConfig RetryConfig

	runner CommandRunner
}

// NewClient builds a Client around the given zfs binary.
func NewClient(command string, retry RetryConfig) *Client {
	if command == "" {
		command = "zfs"
	}
	return &Client{
		Command:     command,
		RetryConfig: retry,
		runner:      execRunner{command: command},
	}
}

// executeWithRetry is a helper to run any operation using the client's retry configuration.
func (c *Client) executeWithRetry(ctx context.Context, opName string, operation func(ctx context.Context) error) error {
	return ExecuteAction(ctx, c.RetryConfig, opName, operation)
}

// readTable runs a read-only zfs query in machine-parseable mode and
// splits its output into rows of tab-separated cells.
func (c *Client) readTable(ctx context.Context, opName string, args ...string) ([][]string, error) {
	var rows [][]string

	readOperation := func(innerCtx context.Context) error {
		out, err := c.runner.Output(innerCtx, args...)
		if err != nil {
			return err
		}
		rows = splitTable(out)
		return nil
	}

	if err := c.executeWithRetry(ctx, opName, readOperation); err != nil {
		return nil, err
	}
	return rows, nil
}

// ListSnapshots returns every tracked snapshot system-wide.
//
// Snapshots that do not carry the snapkeep property (value "-") are
// filtered out here: either their dataset never opted in, or the
// snapshot itself was explicitly marked to be retained.
func (c *Client) ListSnapshots(ctx context.Context) ([]policy.SnapshotInfo, error) {
	rows, err := c.readTable(ctx, "ListSnapshots",
		"list", "-H", "-p",
		"-t", "snapshot",
		"-o", "name,creation,used,"+policy.PropertySnapkeep,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots failed: %w", err)
	}
	return parseSnapshotRows(rows)
}

// GetProperty fetches a single named property of a dataset or snapshot.
func (c *Client) GetProperty(ctx context.Context, name string, property string) (string, error) {
	rows, err := c.readTable(ctx, "GetProperty",
		"get", "-H", "-p", "-o", "value", property, name,
	)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", fmt.Errorf("property %s of %s: empty response from zfs get", property, name)
	}
	return rows[0][0], nil
}

// SetProperty writes a single property on a dataset or snapshot.
func (c *Client) SetProperty(ctx context.Context, name string, property string, value string) error {
	setOperation := func(innerCtx context.Context) error {
		return c.runner.Run(innerCtx, "set", property+"="+value, name)
	}
	return c.executeWithRetry(ctx, "SetProperty", setOperation)
}

// ListDatasetsForSnapshot returns the names of every filesystem and
// volume that has opted into management via the snapkeep property.
func (c *Client) ListDatasetsForSnapshot(ctx context.Context) ([]string, error) {
	rows, err := c.readTable(ctx, "ListDatasetsForSnapshot",
		"get", "-H", "-p",
		"-t", "filesystem,volume",
		"-o", "name,value",
		policy.PropertySnapkeep,
	)
	if err != nil {
		return nil, fmt.Errorf("listing tracked datasets failed: %w", err)
	}

	var datasets []string
	for _, row := range rows {
		if len(row) != 2 {
			return nil, fmt.Errorf("dataset listing parse error: %q", strings.Join(row, "\t"))
		}
		if row[1] == "-" {
			continue
		}
		datasets = append(datasets, row[0])
	}
	return datasets, nil
}

// CreateSnapshot takes a snapshot of the given dataset with an
// auto-generated, timestamped name, then reads back its size.
func (c *Client) CreateSnapshot(ctx context.Context, dataset string) (policy.SnapshotInfo, error) {
	now := time.Now().UTC().Truncate(time.Second)
	name := fmt.Sprintf("%s@%s-autosnap", dataset, now.Format("2006-01-02T15:04:05Z"))

	snapOperation := func(innerCtx context.Context) error {
		return c.runner.Run(innerCtx, "snapshot", name)
	}
	if err := c.executeWithRetry(ctx, "CreateSnapshot", snapOperation); err != nil {
		return policy.SnapshotInfo{}, fmt.Errorf("snapshot of %s failed: %w", dataset, err)
	}

	usedRaw, err := c.GetProperty(ctx, name, "used")
	if err != nil {
		return policy.SnapshotInfo{}, fmt.Errorf("reading size of %s: %w", name, err)
	}
	used, err := strconv.ParseUint(usedRaw, 10, 64)
	if err != nil {
		return policy.SnapshotInfo{}, fmt.Errorf("size of %s: unexpected value %q: %w", name, usedRaw, err)
	}

	return policy.SnapshotInfo{Name: name, Created: now, Used: used}, nil
}

// DestroySnapshot destroys a snapshot by its full name.
//
// The name must contain the '@' separator; anything else is rejected
// with ErrNotSnapshot before zfs is ever invoked.
func (c *Client) DestroySnapshot(ctx context.Context, name string) error {
	if !strings.Contains(name, "@") {
		return fmt.Errorf("%w: %q", ErrNotSnapshot, name)
	}

	destroyOperation := func(innerCtx context.Context) error {
		return c.runner.Run(innerCtx, "destroy", name)
	}
	return c.executeWithRetry(ctx, "DestroySnapshot", destroyOperation)
}
