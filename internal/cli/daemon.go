package cli

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/metrics"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/notifications"
	"github.com/aravindh-murugesan/zfs-snapsentry-go/internal/workflow"
	"github.com/go-co-op/gocron-ui/server"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

var (
	snapSchedule   string
	gcSchedule     string
	bindAddress    string
	metricsAddress string
)

var daemonCommand = &cobra.Command{
	Use:     "daemon",
	GroupID: "snapsentry",
	Short:   "Run Snapsentry in daemon mode",
	Long:    `Starts Snapsentry as a background service that periodically runs the snapshot and expiry workflows on cron schedules, serves a scheduler dashboard, and optionally exposes Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		banner := fmt.Sprintf("Snapsentry - Daemon Mode \n\nVersion: %s\nBuild Date: %s", SnapsentryVersion, SnapsentryDate)
		fmt.Println(headerStyle.Render(banner))

		webhookProvider := notifications.Webhook{
			URL:      webhookURL,
			Username: webhookUsername,
			Password: webhookPassword,
		}

		dlog := workflow.SetupLogger(logLevel).With("component", "daemon")

		s, err := gocron.NewScheduler()
		if err != nil {
			return fmt.Errorf("failed to create scheduler: %w", err)
		}
		s.Start()
		dlog.Info("Scheduler started", "zfs_command", zfsCommand)

		// Declare first so the task closure can report the next run.
		var snapJob gocron.Job

		snapJob, snapJobError := s.NewJob(
			gocron.CronJob(
				snapSchedule,
				false,
			),
			gocron.NewTask(func() {
				if err := workflow.RunSnapshotWorkflow(zfsCommand, timeout, logLevel, webhookProvider); err != nil {
					dlog.Error("Snapshot workflow failed", "error", err)
				}

				if snapJob != nil {
					if nextRun, err := snapJob.NextRun(); err == nil {
						dlog.Info("Snapshot workflow completed",
							"next_run", nextRun.Format(time.RFC3339),
							"job_id", snapJob.ID())
					}
				}
			}),
			gocron.WithName("Snapshot Creation Workflow"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if snapJobError != nil {
			return snapJobError
		}

		if nextRun, err := snapJob.NextRun(); err == nil {
			dlog.Info("Job Scheduled",
				"job_name", snapJob.Name(),
				"job_id", snapJob.ID(),
				"schedule", snapSchedule,
				"next_run", nextRun.Format(time.RFC3339))
		}

		// --- Expiry Workflow ---
		var gcJob gocron.Job

		gcJob, gcJobError := s.NewJob(
			gocron.CronJob(
				gcSchedule,
				false,
			),
			gocron.NewTask(func() {
				if err := workflow.RunGCWorkflow(zfsCommand, timeout, logLevel, webhookProvider); err != nil {
					dlog.Error("Expiry workflow failed", "error", err)
				}

				if gcJob != nil {
					if nextRun, err := gcJob.NextRun(); err == nil {
						dlog.Info("Expiry workflow completed",
							"next_run", nextRun.Format(time.RFC3339),
							"job_id", gcJob.ID())
					}
				}
			}),
			gocron.WithName("Snapshot Expiry Workflow"),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		)
		if gcJobError != nil {
			return gcJobError
		}

		if nextRun, err := gcJob.NextRun(); err == nil {
			dlog.Info("Job Scheduled",
				"job_name", gcJob.Name(),
				"job_id", gcJob.ID(),
				"schedule", gcSchedule,
				"next_run", nextRun.Format(time.RFC3339))
		}

		// Scheduler dashboard
		srv := server.NewServer(s, 8080, server.WithTitle("ZFS Snapsentry - Dashboard"))
		go func() {
			dlog.Info("Snapsentry Scheduler UI started", "address", bindAddress)
			if err := http.ListenAndServe(bindAddress, srv.Router); err != nil {
				dlog.Error("Failed to start UI server", "error", err)
			}
		}()

		// Optional Prometheus endpoint
		if metricsAddress != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				dlog.Info("Metrics endpoint started", "address", metricsAddress)
				if err := http.ListenAndServe(metricsAddress, mux); err != nil {
					dlog.Error("Failed to start metrics server", "error", err)
				}
			}()
		}

		// Block Main Thread until Signal
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		dlog.Warn("Shutting down scheduler due to system signal...")
		return s.Shutdown()
	},
}

func init() {
	rootCommand.AddCommand(daemonCommand)
	daemonCommand.Flags().StringVar(&snapSchedule, "snap-schedule", "0 * * * *", "Cron schedule for snapshot creation")
	daemonCommand.Flags().StringVar(&gcSchedule, "gc-schedule", "30 3 * * *", "Cron schedule for snapshot expiry")
	daemonCommand.Flags().StringVar(&bindAddress, "bind-address", "0.0.0.0:8080", "Address to bind the UI server")
	daemonCommand.Flags().StringVar(&metricsAddress, "metrics-address", "", "Address to serve Prometheus metrics (empty = disabled)")
}
