package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/policy"
)

// SnapshotStore is the narrow surface of the ZFS backend the workflows
// depend on. It exists so the retention logic can be exercised against
// fakes without a real pool; *zfs.Client is the production
// implementation.
type SnapshotStore interface {
	// ListSnapshots returns every tracked snapshot system-wide,
	// already filtered to exclude untracked and opted-out entries.
	ListSnapshots(ctx context.Context) ([]policy.SnapshotInfo, error)

	// GetProperty fetches a single named property of a dataset or snapshot.
	GetProperty(ctx context.Context, name string, property string) (string, error)

	// SetProperty writes a single property on a dataset or snapshot.
	SetProperty(ctx context.Context, name string, property string, value string) error

	// ListDatasetsForSnapshot returns the datasets that opted into management.
	ListDatasetsForSnapshot(ctx context.Context) ([]string, error)

	// CreateSnapshot takes a tracked, timestamped snapshot of a dataset.
	CreateSnapshot(ctx context.Context, dataset string) (policy.SnapshotInfo, error)

	// DestroySnapshot destroys one snapshot by full name. It must
	// reject names lacking the '@' separator.
	DestroySnapshot(ctx context.Context, name string) error
}

// FindExpired lists all tracked snapshots, groups them by dataset,
// checks each group against its dataset's retention policy, and merges
// the per-dataset partitions into one global keep/delete decision.
//
// Any failure to fetch a dataset's policy aborts the whole aggregation:
// the result feeds a destructive gc pass, which must never act on an
// incomplete picture. Partial results are not produced.
//
// Datasets are processed in sorted-name order so runs are reproducible,
// but callers must not rely on any cross-dataset ordering in the
// result; only per-dataset ordering (newest first) is guaranteed.
func FindExpired(ctx context.Context, store SnapshotStore, logger *slog.Logger) (policy.AgeCheckResult, error) {
	snapshots, err := store.ListSnapshots(ctx)
	if err != nil {
		return policy.AgeCheckResult{}, fmt.Errorf("listing snapshots failed: %w", err)
	}

	groups := make(map[string][]policy.SnapshotInfo)
	for _, snapshot := range snapshots {
		dataset := snapshot.Dataset()
		groups[dataset] = append(groups[dataset], snapshot)
	}

	datasets := make([]string, 0, len(groups))
	for dataset := range groups {
		datasets = append(datasets, dataset)
	}
	sort.Strings(datasets)

	var aggregate policy.AgeCheckResult
	for _, dataset := range datasets {
		spec, err := store.GetProperty(ctx, dataset, policy.PropertySnapkeep)
		if err != nil {
			return policy.AgeCheckResult{}, fmt.Errorf("fetching retention policy of %s: %w", dataset, err)
		}

		retention := policy.ParseRetentionPolicy(spec)
		check := retention.CheckAge(groups[dataset])

		logger.Debug("Dataset classified",
			"dataset", dataset,
			"policy", retention.String(),
			"keep_count", len(check.Keep),
			"delete_count", len(check.Delete))

		aggregate.Keep = append(aggregate.Keep, check.Keep...)
		aggregate.Delete = append(aggregate.Delete, check.Delete...)
	}

	return aggregate, nil
}
