package cli

import (
	"fmt"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/workflow"
	"github.com/spf13/cobra"
)

var gcCommand = &cobra.Command{
	Use:     "gc",
	GroupID: "snapsentry",
	Short:   "Destroy every snapshot the retention policies no longer keep",
	Long:    `Computes the global keep/delete decision (the same one 'status' prints) and permanently destroys every snapshot in the delete set. The decision is all-or-nothing: if any dataset's policy cannot be read, nothing is destroyed. Typically run from cron.daily or via the daemon.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(headerStyle.Render("Snapsentry - Expiry Workflow"))

		webhookProvider := notifications.Webhook{
			URL:      webhookURL,
			Username: webhookUsername,
			Password: webhookPassword,
		}

		return workflow.RunGCWorkflow(zfsCommand, timeout, logLevel, webhookProvider)
	},
}

func init() {
	rootCommand.AddCommand(gcCommand)
}
