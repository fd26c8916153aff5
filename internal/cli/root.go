package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	zfsCommand, logLevel string
	timeout              int
	webhookURL           string
	webhookUsername      string
	webhookPassword      string
)

var rootCommand = &cobra.Command{
	Use:     "zfs-snapsentry",
	Aliases: []string{"snapsentry"},
	Short:   "SnapSentry: ZFS Snapshot Retention Manager",
	Long: `SnapSentry is a policy-based snapshot retention manager for ZFS datasets.
Datasets opt in by carrying the 'x-snapsentry:snapkeep' user property, whose
value is a compact generational retention spec such as 'h24d30w8m6y1'
(keep 24 hourlies, 30 dailies, 8 weeklies, 6 monthlies, 1 yearly).
SnapSentry then creates snapshots for tracked datasets, classifies existing
snapshots into keep/delete sets per dataset, and garbage-collects the rest.`,
}

func Execute() error {
	return rootCommand.Execute()
}

func init() {
	rootCommand.AddGroup(&cobra.Group{ID: "snapsentry", Title: "Snapsentry"})

	// Global Peristent Flags with env vars support
	rootCommand.PersistentFlags().StringVar(&zfsCommand, "zfs-command", "zfs", "Path to the zfs binary")
	rootCommand.PersistentFlags().IntVar(&timeout, "timeout", 0, "Global execution timeout in seconds (0 = run indefinitely)")
	rootCommand.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCommand.PersistentFlags().StringVar(&webhookURL, "webhook-url", "", "Webhook URL for alerting")
	rootCommand.PersistentFlags().StringVar(&webhookUsername, "webhook-username", "", "Webhook username for alerting")
	rootCommand.PersistentFlags().StringVar(&webhookPassword, "webhook-password", "", "Webhook password for alerting")
	// Bind to env vars
	_ = viper.BindPFlag("zfs_command", rootCommand.PersistentFlags().Lookup("zfs-command"))
	_ = viper.BindPFlag("timeout", rootCommand.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("log_level", rootCommand.PersistentFlags().Lookup("log-level"))

	viper.SetEnvPrefix("SNAPSENTRY")
	viper.AutomaticEnv()
}
