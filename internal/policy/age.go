package policy

import (
	"fmt"
	"sort"
	"time"
)

// retentionRule pairs a rule's configured count with the function that
// maps a creation time to its coarse period bucket.
type retentionRule struct {
	name   string
	count  *int
	bucket func(time.Time) string
}

// rules returns the five retention rules in evaluation order, finest
// granularity first.
//
// Note the weekly bucket: it is literally "year + weekday index"
// (Sunday=0), so all Mondays of a year share one bucket. This is not a
// calendar-week number. The behavior is kept as-is because existing
// deployments depend on it; do not "fix" it without a migration plan.
func (p RetentionPolicy) rules() []retentionRule {
	return []retentionRule{
		{"hourly", p.Hourly, func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15")
		}},
		{"daily", p.Daily, func(t time.Time) string {
			return t.UTC().Format("2006-01-02")
		}},
		{"weekly", p.Weekly, func(t time.Time) string {
			t = t.UTC()
			return fmt.Sprintf("%s w%d", t.Format("2006"), int(t.Weekday()))
		}},
		{"monthly", p.Monthly, func(t time.Time) string {
			return t.UTC().Format("2006-01")
		}},
		{"yearly", p.Yearly, func(t time.Time) string {
			return t.UTC().Format("2006")
		}},
	}
}

// CheckAge partitions one dataset's snapshots into keep and delete sets
// according to the policy.
//
// Snapshots are sorted newest first (stable, so tied timestamps keep
// their input order and repeated runs are byte-identical). Each rule
// then scans the sorted list and keeps the newest snapshot of each of
// its N most-recent distinct period buckets; a snapshot kept by any
// rule is kept. Everything else is returned in Delete.
//
// CheckAge is a pure function: it never fails, never mutates its input,
// and has no cross-dataset knowledge.
func (p RetentionPolicy) CheckAge(snapshots []SnapshotInfo) AgeCheckResult {
	sorted := make([]SnapshotInfo, len(snapshots))
	copy(sorted, snapshots)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Created.After(sorted[j].Created)
	})

	// Kept-ness is tracked by index into the sorted slice rather than by
	// snapshot value, so two snapshots that happen to collide on every
	// field still count separately.
	kept := make([]bool, len(sorted))

	for _, rule := range p.rules() {
		if rule.count == nil || *rule.count <= 0 {
			continue
		}
		var last string
		seen := false
		remaining := *rule.count
		for i, s := range sorted {
			period := rule.bucket(s.Created)
			if seen && period == last {
				continue
			}
			seen = true
			last = period
			kept[i] = true
			remaining--
			if remaining == 0 {
				break
			}
		}
	}

	result := AgeCheckResult{}
	for i, s := range sorted {
		if kept[i] {
			result.Keep = append(result.Keep, s)
		} else {
			result.Delete = append(result.Delete, s)
		}
	}
	return result
}
