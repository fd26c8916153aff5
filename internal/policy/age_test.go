package policy

import (
	"reflect"
	"testing"
	"time"
)

func mkSnap(name string, created time.Time) SnapshotInfo {
	return SnapshotInfo{Name: name, Created: created, Used: 1 << 30}
}

func names(snaps []SnapshotInfo) []string {
	out := make([]string, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, s.Name)
	}
	return out
}

// The scenario from the bucket semantics: five snapshots spanning two
// days under an "h2" policy must keep exactly the newest snapshot of
// the two most recent distinct hour buckets.
func TestCheckAgeHourlyBuckets(t *testing.T) {
	day := time.Date(2021, 10, 2, 0, 0, 0, 0, time.UTC)
	snaps := []SnapshotInfo{
		mkSnap("tank/a@00-10", day.Add(10*time.Minute)),
		mkSnap("tank/a@00-40", day.Add(40*time.Minute)),
		mkSnap("tank/a@01-05", day.Add(time.Hour+5*time.Minute)),
		mkSnap("tank/a@02-00", day.Add(2*time.Hour)),
		mkSnap("tank/a@26-00", day.Add(26*time.Hour)),
	}

	result := ParseRetentionPolicy("h2").CheckAge(snaps)

	wantKeep := []string{"tank/a@26-00", "tank/a@02-00"}
	if !reflect.DeepEqual(names(result.Keep), wantKeep) {
		t.Errorf("Keep = %v, want %v", names(result.Keep), wantKeep)
	}
	wantDelete := []string{"tank/a@01-05", "tank/a@00-40", "tank/a@00-10"}
	if !reflect.DeepEqual(names(result.Delete), wantDelete) {
		t.Errorf("Delete = %v, want %v", names(result.Delete), wantDelete)
	}
}

// The weekly bucket is year + weekday index, not a calendar week
// number: two Mondays of the same year are fungible even when they are
// weeks apart.
func TestCheckAgeWeeklyBucketsByWeekday(t *testing.T) {
	snaps := []SnapshotInfo{
		mkSnap("tank/a@mon1", time.Date(2021, 1, 4, 12, 0, 0, 0, time.UTC)),  // Monday
		mkSnap("tank/a@mon2", time.Date(2021, 1, 11, 12, 0, 0, 0, time.UTC)), // Monday, next week
		mkSnap("tank/a@tue1", time.Date(2021, 1, 5, 12, 0, 0, 0, time.UTC)),  // Tuesday
	}

	result := ParseRetentionPolicy("w2").CheckAge(snaps)

	wantKeep := []string{"tank/a@mon2", "tank/a@tue1"}
	if !reflect.DeepEqual(names(result.Keep), wantKeep) {
		t.Errorf("Keep = %v, want %v", names(result.Keep), wantKeep)
	}
	if got := names(result.Delete); !reflect.DeepEqual(got, []string{"tank/a@mon1"}) {
		t.Errorf("Delete = %v, want [tank/a@mon1]", got)
	}
}

func TestCheckAgePartitionAndIdempotence(t *testing.T) {
	base := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	var snaps []SnapshotInfo
	for i := 0; i < 50; i++ {
		snaps = append(snaps, mkSnap(
			"tank/data@auto-"+base.Add(time.Duration(i)*7*time.Hour).Format("2006-01-02-15"),
			base.Add(time.Duration(i)*7*time.Hour),
		))
	}

	specs := []string{"h24d30w8m6y1", "d3", "", "y1", "h0d0w0m0y0"}
	for _, spec := range specs {
		t.Run("spec "+spec, func(t *testing.T) {
			p := ParseRetentionPolicy(spec)
			result := p.CheckAge(snaps)

			if got := len(result.Keep) + len(result.Delete); got != len(snaps) {
				t.Fatalf("partition size = %d, want %d", got, len(snaps))
			}
			seen := map[string]bool{}
			for _, s := range append(append([]SnapshotInfo{}, result.Keep...), result.Delete...) {
				if seen[s.Name] {
					t.Fatalf("snapshot %s appears in both sets", s.Name)
				}
				seen[s.Name] = true
			}
			for _, s := range snaps {
				if !seen[s.Name] {
					t.Fatalf("snapshot %s missing from partition", s.Name)
				}
			}

			again := p.CheckAge(snaps)
			if !reflect.DeepEqual(result, again) {
				t.Error("repeated evaluation produced a different partition")
			}
		})
	}
}

// Raising any single rule's count may move snapshots from delete to
// keep, never the other way.
func TestCheckAgeMonotonicity(t *testing.T) {
	base := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	var snaps []SnapshotInfo
	for i := 0; i < 40; i++ {
		snaps = append(snaps, mkSnap(
			"tank/data@n"+base.Add(time.Duration(i)*13*time.Hour).Format("20060102150405"),
			base.Add(time.Duration(i)*13*time.Hour),
		))
	}

	prevKeep := map[string]bool{}
	for n := 0; n <= 12; n++ {
		p := RetentionPolicy{Daily: intPtr(n), Weekly: intPtr(2)}
		result := p.CheckAge(snaps)
		keep := map[string]bool{}
		for _, s := range result.Keep {
			keep[s.Name] = true
		}
		for name := range prevKeep {
			if !keep[name] {
				t.Fatalf("daily=%d dropped %s which was kept at daily=%d", n, name, n-1)
			}
		}
		prevKeep = keep
	}
}

func TestCheckAgeZeroAndUnsetEquivalent(t *testing.T) {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	var snaps []SnapshotInfo
	for i := 0; i < 10; i++ {
		snaps = append(snaps, mkSnap(
			"tank/data@z"+base.AddDate(0, 0, i).Format("20060102"),
			base.AddDate(0, 0, i),
		))
	}

	unset := RetentionPolicy{Daily: intPtr(3)}
	zeroed := RetentionPolicy{Daily: intPtr(3), Hourly: intPtr(0), Weekly: intPtr(0), Monthly: intPtr(0), Yearly: intPtr(0)}

	if !reflect.DeepEqual(unset.CheckAge(snaps), zeroed.CheckAge(snaps)) {
		t.Error("explicit zero rules changed the partition relative to unset rules")
	}
}

func TestCheckAgeEdgeCases(t *testing.T) {
	t.Run("Empty Input", func(t *testing.T) {
		result := ParseRetentionPolicy("h24").CheckAge(nil)
		if len(result.Keep) != 0 || len(result.Delete) != 0 {
			t.Errorf("empty input produced non-empty partition: %+v", result)
		}
	})

	t.Run("Retain Nothing Policy", func(t *testing.T) {
		snaps := []SnapshotInfo{
			mkSnap("tank/a@one", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)),
			mkSnap("tank/a@two", time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC)),
		}
		result := RetentionPolicy{}.CheckAge(snaps)
		if len(result.Keep) != 0 {
			t.Errorf("all-unset policy kept %v, want nothing", names(result.Keep))
		}
		if len(result.Delete) != 2 {
			t.Errorf("all-unset policy deleted %d snapshots, want 2", len(result.Delete))
		}
	})

	t.Run("Tied Timestamps Are Deterministic", func(t *testing.T) {
		at := time.Date(2021, 5, 5, 5, 0, 0, 0, time.UTC)
		snaps := []SnapshotInfo{
			mkSnap("tank/a@first", at),
			mkSnap("tank/a@second", at),
		}
		p := ParseRetentionPolicy("h1")
		result := p.CheckAge(snaps)
		// The stable sort preserves input order, so the first input
		// snapshot is the bucket representative.
		if got := names(result.Keep); !reflect.DeepEqual(got, []string{"tank/a@first"}) {
			t.Errorf("Keep = %v, want [tank/a@first]", got)
		}
		if !reflect.DeepEqual(result, p.CheckAge(snaps)) {
			t.Error("tied timestamps produced unstable output")
		}
	})
}
