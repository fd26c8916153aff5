package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/metrics"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/policy"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/zfs"
	"github.com/google/uuid"
)

// RunStatusWorkflow computes the global keep/delete decision without
// touching anything. The caller renders the result.
func RunStatusWorkflow(zfsCommand string, timeoutSeconds int, logLevel string) (policy.AgeCheckResult, error) {
	logger := SetupLogger(logLevel).With(
		"workflow", "status",
		"run_id", fmt.Sprintf("req-%s", uuid.New().String()),
	)

	ctx, cancel := newWorkflowContext(timeoutSeconds)
	defer cancel()

	store := zfs.NewClient(zfsCommand, defaultRetryConfig)
	return FindExpired(ctx, store, logger)
}

// RunGCWorkflow computes the global keep/delete decision and destroys
// every snapshot in the delete set.
//
// The decision itself is all-or-nothing (see FindExpired); the
// destruction sweep is best-effort per snapshot, so one stuck snapshot
// does not strand the rest. Destroy failures are logged, notified, and
// surfaced as a summary error.
func RunGCWorkflow(zfsCommand string, timeoutSeconds int, logLevel string, webhook notifications.Webhook) error {
	logger := SetupLogger(logLevel).With(
		"workflow", "gc",
		"run_id", fmt.Sprintf("req-%s", uuid.New().String()),
	)
	logger.Info("Initializing snapshot expiry workflow")

	ctx, cancel := newWorkflowContext(timeoutSeconds)
	defer cancel()

	store := zfs.NewClient(zfsCommand, defaultRetryConfig)
	metrics.GCRuns.Inc()

	check, err := FindExpired(ctx, store, logger)
	if err != nil {
		logger.Error("Retention decision failed; nothing was destroyed", "error", err)
		return err
	}

	logger.Info("Retention decision computed",
		"keep_count", len(check.Keep),
		"delete_count", len(check.Delete))

	return destroyExpired(ctx, store, check, webhook, logger)
}

func destroyExpired(ctx context.Context, store SnapshotStore, check policy.AgeCheckResult, webhook notifications.Webhook, logger *slog.Logger) error {
	errorCount := 0

	for _, snapshot := range check.Delete {
		if ctx.Err() != nil {
			logger.Warn("Workflow execution halted due to timeout or cancellation")
			return ctx.Err()
		}

		snapLogger := logger.With("snapshot", snapshot.Name, "dataset", snapshot.Dataset())

		if err := store.DestroySnapshot(ctx, snapshot.Name); err != nil {
			snapLogger.Error("Snapshot destruction failed", "error", err)
			metrics.DestroyFailures.Inc()
			errorCount++
			webhook.Notify(notifications.WorkflowFailure{
				Service:  "zfs-snapsentry",
				Workflow: "gc",
				Dataset:  snapshot.Dataset(),
				Snapshot: snapshot.Name,
				Message:  err.Error(),
			}, snapLogger)
			continue
		}

		metrics.SnapshotsDestroyed.Inc()
		snapLogger.Info("Snapshot destroyed", "used_bytes", snapshot.Used)
	}

	logger.Info("Expiry workflow execution summary",
		"destroyed_count", len(check.Delete)-errorCount,
		"error_count", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("gc workflow completed with %d of %d destroys failing", errorCount, len(check.Delete))
	}
	return nil
}
