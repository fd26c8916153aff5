package workflow

import (
	"fmt"
	"strings"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/policy"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/zfs"
)

// RunSubscribeWorkflow opts a dataset into snapshot management by
// writing its retention policy spec into the snapkeep property.
//
// The raw spec is parsed and re-rendered in canonical form before being
// stored, so typos degrade loudly here instead of silently at gc time.
func RunSubscribeWorkflow(zfsCommand string, timeoutSeconds int, logLevel string, dataset string, spec string) error {
	logger := SetupLogger(logLevel).With("workflow", "subscribe", "dataset", dataset)

	retention := policy.ParseRetentionPolicy(spec)
	canonical := retention.String()

	if retention.RetainsNothing() {
		logger.Warn("Policy spec retains nothing; every tracked snapshot of this dataset will be deleted by gc",
			"spec", spec, "canonical", canonical)
	} else if canonical != spec {
		logger.Info("Policy spec normalized", "spec", spec, "canonical", canonical)
	}

	ctx, cancel := newWorkflowContext(timeoutSeconds)
	defer cancel()

	store := zfs.NewClient(zfsCommand, defaultRetryConfig)
	if err := store.SetProperty(ctx, dataset, policy.PropertySnapkeep, canonical); err != nil {
		logger.Error("Subscription failed", "error", err)
		return fmt.Errorf("subscribing %s failed: %w", dataset, err)
	}

	logger.Info("Dataset subscribed", "policy", canonical)
	return nil
}

// RunRetainWorkflow exempts a single snapshot from expiry by setting
// its snapkeep property to the "-" sentinel; the listing filter then
// never surfaces it to the retention engine again.
func RunRetainWorkflow(zfsCommand string, timeoutSeconds int, logLevel string, snapshot string) error {
	logger := SetupLogger(logLevel).With("workflow", "retain", "snapshot", snapshot)

	if !strings.Contains(snapshot, "@") {
		return fmt.Errorf("retain targets a snapshot, and %q is not one (missing '@')", snapshot)
	}

	ctx, cancel := newWorkflowContext(timeoutSeconds)
	defer cancel()

	store := zfs.NewClient(zfsCommand, defaultRetryConfig)
	if err := store.SetProperty(ctx, snapshot, policy.PropertySnapkeep, "-"); err != nil {
		logger.Error("Retain failed", "error", err)
		return fmt.Errorf("retaining %s failed: %w", snapshot, err)
	}

	logger.Info("Snapshot exempted from expiry")
	return nil
}
