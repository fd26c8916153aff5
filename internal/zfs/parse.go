package zfs

import (
	"fmt"
	"strings"
	"time"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/policy"
	"github.com/go-viper/mapstructure/v2"
)

// snapshotRow is the typed form of one line of
// `zfs list -H -p -t snapshot -o name,creation,used,<snapkeep>`.
// With -p, creation is epoch seconds and used is raw bytes.
type snapshotRow struct {
	Name     string `json:"name"`
	Creation int64  `json:"creation"`
	Used     uint64 `json:"used"`
	Snapkeep string `json:"snapkeep"`
}

// listColumns are the -o columns requested from zfs list, in order.
var listColumns = []string{"name", "creation", "used", "snapkeep"}

// decodeRow unmarshals a column-name → cell map into a typed row using
// weak typing, so the numeric columns convert from their string form.
func decodeRow(fields map[string]string) (*snapshotRow, error) {
	var row snapshotRow

	config := &mapstructure.DecoderConfig{
		Result:           &row,
		WeaklyTypedInput: true,
		TagName:          "json",
	}

	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(fields); err != nil {
		return nil, err
	}

	return &row, nil
}

// splitTable turns raw -H output into rows of tab-separated cells,
// dropping empty lines.
func splitTable(out string) [][]string {
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		rows = append(rows, strings.Split(line, "\t"))
	}
	return rows
}

// parseSnapshotRows converts listing rows into SnapshotInfo records.
//
// Rows whose snapkeep column is "-" are skipped: either the snapshot's
// dataset is not managed at all, or the snapshot was explicitly marked
// to be retained and opted out of expiry.
func parseSnapshotRows(rows [][]string) ([]policy.SnapshotInfo, error) {
	snapshots := make([]policy.SnapshotInfo, 0, len(rows))
	for _, row := range rows {
		if len(row) != len(listColumns) {
			return nil, fmt.Errorf("snapshot listing parse error: expected %d columns, got %d (%q)",
				len(listColumns), len(row), strings.Join(row, "\t"))
		}

		fields := make(map[string]string, len(listColumns))
		for i, column := range listColumns {
			fields[column] = row[i]
		}
		if fields["snapkeep"] == "-" {
			continue
		}

		decoded, err := decodeRow(fields)
		if err != nil {
			return nil, fmt.Errorf("snapshot listing parse error for %q: %w", fields["name"], err)
		}

		snapshots = append(snapshots, policy.SnapshotInfo{
			Name:    decoded.Name,
			Created: time.Unix(decoded.Creation, 0).UTC(),
			Used:    decoded.Used,
		})
	}
	return snapshots, nil
}
