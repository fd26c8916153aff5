package cli

import (
	"fmt"
	"time"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/policy"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/workflow"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCommand = &cobra.Command{
	Use:     "status",
	GroupID: "snapsentry",
	Short:   "Show the current keep/delete decision without side effects",
	Long:    `Lists every tracked snapshot, evaluates each dataset's retention policy, and prints which snapshots would be kept and which would be deleted by 'gc'. Nothing is modified.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Retention Status"))

		check, err := workflow.RunStatusWorkflow(zfsCommand, timeout, logLevel)
		if err != nil {
			return err
		}

		renderCheck(check)
		return nil
	},
}

// renderCheck prints the partition in the original report shape: a
// byte total per set followed by one tab-separated line per snapshot.
func renderCheck(check policy.AgeCheckResult) {
	if len(check.Keep) > 0 {
		fmt.Println(keepStyle.Render(fmt.Sprintf("keep: %s", humanize.IBytes(totalUsed(check.Keep)))))
		for _, s := range check.Keep {
			fmt.Printf("keep: %s\t%s\t%s\n", s.Name, s.Created.Format(time.RFC3339), humanize.IBytes(s.Used))
		}
	}
	if len(check.Delete) > 0 {
		fmt.Println(deleteStyle.Render(fmt.Sprintf("delete: %s", humanize.IBytes(totalUsed(check.Delete)))))
		for _, s := range check.Delete {
			fmt.Printf("delete: %s\t%s\t%s\n", s.Name, s.Created.Format(time.RFC3339), humanize.IBytes(s.Used))
		}
	}
}

func totalUsed(snapshots []policy.SnapshotInfo) uint64 {
	var total uint64
	for _, s := range snapshots {
		total += s.Used
	}
	return total
}

func init() {
	rootCommand.AddCommand(statusCommand)
}
