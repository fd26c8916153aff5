package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/metrics"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/zfs"
	"github.com/google/uuid"
)

// defaultRetryConfig is shared by all workflows. Retries only apply to
// the transient zfs failure modes (busy dataset, suspended pool).
var defaultRetryConfig = zfs.RetryConfig{
	MaxRetries:       3,
	BaseDelay:        2 * time.Second,
	MaxDelay:         10 * time.Second,
	OperationTimeout: 30 * time.Second,
}

// newWorkflowContext builds the context with the optional global
// timeout that every workflow honors between datasets.
func newWorkflowContext(timeoutSeconds int) (context.Context, context.CancelFunc) {
	if timeoutSeconds > 0 {
		return context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	}
	return context.Background(), func() {}
}

// RunSnapshotWorkflow creates a snapshot for every tracked dataset.
//
// Datasets are processed sequentially; a failure on one dataset is
// logged, notified, and counted, but does not stop the sweep. The
// returned error summarizes how many datasets failed.
func RunSnapshotWorkflow(zfsCommand string, timeoutSeconds int, logLevel string, webhook notifications.Webhook) error {
	logger := SetupLogger(logLevel).With(
		"workflow", "snapshot",
		"run_id", fmt.Sprintf("req-%s", uuid.New().String()),
	)
	logger.Info("Initializing snapshot creation workflow")

	ctx, cancel := newWorkflowContext(timeoutSeconds)
	defer cancel()

	store := zfs.NewClient(zfsCommand, defaultRetryConfig)
	return snapshotTrackedDatasets(ctx, store, webhook, logger)
}

func snapshotTrackedDatasets(ctx context.Context, store SnapshotStore, webhook notifications.Webhook, logger *slog.Logger) error {
	datasets, err := store.ListDatasetsForSnapshot(ctx)
	if err != nil {
		logger.Error("Tracked dataset discovery failed", "error", err)
		return fmt.Errorf("listing tracked datasets failed: %w", err)
	}
	logger.Info("Tracked dataset discovery completed", "dataset_count", len(datasets))
	metrics.TrackedDatasets.Set(float64(len(datasets)))

	successCount := 0
	errorCount := 0

	for i, dataset := range datasets {
		// Fail-safe: honor global cancellation/timeout between datasets.
		if ctx.Err() != nil {
			logger.Warn("Workflow execution halted due to timeout or cancellation")
			return ctx.Err()
		}

		dsLogger := logger.With(
			"dataset", dataset,
			"progress", fmt.Sprintf("%d/%d", i+1, len(datasets)),
		)

		snapshot, err := store.CreateSnapshot(ctx, dataset)
		if err != nil {
			dsLogger.Error("Snapshot creation failed", "error", err)
			errorCount++
			webhook.Notify(notifications.WorkflowFailure{
				Service:  "zfs-snapsentry",
				Workflow: "snapshot",
				Dataset:  dataset,
				Message:  err.Error(),
			}, dsLogger)
			continue
		}

		metrics.SnapshotsCreated.Inc()
		successCount++
		dsLogger.Info("Snapshot created", "snapshot", snapshot.Name, "used_bytes", snapshot.Used)
	}

	logger.Info("Snapshot workflow execution summary",
		"datasets_processed", len(datasets),
		"success_count", successCount,
		"error_count", errorCount)

	if errorCount > 0 {
		return fmt.Errorf("snapshot workflow completed with %d of %d datasets failing", errorCount, len(datasets))
	}
	return nil
}
