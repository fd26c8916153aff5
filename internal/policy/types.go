package policy

import "time"

// PropertySnapkeep is the ZFS user property that opts a dataset into
// snapshot management and carries its retention policy spec. Setting it
// to "-" on an individual snapshot exempts that snapshot from expiry.
const PropertySnapkeep = "x-snapsentry:snapkeep"

// SnapshotInfo is the immutable view of one ZFS snapshot that the
// retention engine operates on. Name is always "<dataset>@<suffix>".
type SnapshotInfo struct {
	Name    string
	Created time.Time
	Used    uint64
}

// Dataset returns the dataset portion of the snapshot name (everything
// before the first '@').
func (s SnapshotInfo) Dataset() string {
	for i := 0; i < len(s.Name); i++ {
		if s.Name[i] == '@' {
			return s.Name[:i]
		}
	}
	return s.Name
}

// AgeCheckResult is an exhaustive, disjoint partition of a snapshot set:
// every input snapshot lands in exactly one of Keep or Delete.
type AgeCheckResult struct {
	Keep   []SnapshotInfo
	Delete []SnapshotInfo
}
