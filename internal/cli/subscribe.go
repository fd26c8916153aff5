package cli

import (
	"fmt"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

// Flags for subscribe / retain
var (
	datasetName  string
	policySpec   string
	snapshotName string
)

var subscribeCommand = &cobra.Command{
	Use:     "subscribe",
	GroupID: "snapsentry",
	Short:   "Attach a retention policy to a dataset",
	Long:    `Writes the snapkeep user property on the target dataset, opting it into snapshot management. The policy spec is the compact generational form, e.g. 'h24d30w8m6y1'. Snapshots of the dataset inherit the property and become visible to 'status', 'snap' and 'gc'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Subscription"))
		return workflow.RunSubscribeWorkflow(zfsCommand, timeout, logLevel, datasetName, policySpec)
	},
}

var retainCommand = &cobra.Command{
	Use:     "retain",
	GroupID: "snapsentry",
	Short:   "Exempt a single snapshot from expiry",
	Long:    `Sets the snapkeep property of one snapshot to '-', permanently excluding it from retention decisions. Use this to pin a known-good snapshot before risky maintenance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Retain Snapshot"))
		return workflow.RunRetainWorkflow(zfsCommand, timeout, logLevel, snapshotName)
	},
}

func init() {
	subscribeCommand.Flags().StringVar(&datasetName, "dataset", "", "Name of the dataset, e.g. tank/data (required)")
	subscribeCommand.Flags().StringVar(&policySpec, "policy", "", "Retention policy spec, e.g. h24d30w8m6y1 (required)")
	_ = subscribeCommand.MarkFlagRequired("dataset")
	_ = subscribeCommand.MarkFlagRequired("policy")

	retainCommand.Flags().StringVar(&snapshotName, "snapshot", "", "Full snapshot name, e.g. tank/data@2021-10-02T09:59:00Z-autosnap (required)")
	_ = retainCommand.MarkFlagRequired("snapshot")

	rootCommand.AddCommand(subscribeCommand)
	rootCommand.AddCommand(retainCommand)
}
