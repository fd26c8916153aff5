package cli

import (
	"fmt"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

var snapCommand = &cobra.Command{
	Use:     "snap",
	GroupID: "snapsentry",
	Short:   "Create a snapshot for every tracked dataset",
	Long:    `Finds all datasets carrying the snapkeep property and takes a timestamped snapshot of each. Typically run from cron.hourly or via the daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Snapshot Workflow"))

		webhookProvider := notifications.Webhook{
			URL:      webhookURL,
			Username: webhookUsername,
			Password: webhookPassword,
		}

		return workflow.RunSnapshotWorkflow(zfsCommand, timeout, logLevel, webhookProvider)
	},
}

func init() {
	rootCommand.AddCommand(snapCommand)
}
