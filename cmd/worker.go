package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background workers that keep resolutions moving without user action.`,
}

var escalationWorkerCmd = &cobra.Command{
	Use:   "escalation",
	Short: "Start the auto-accept sweeper",
	Long:  `Periodically auto-accept operational resolutions the executor unit left unanswered past the configured window.`,
	Run: func(cmd *cobra.Command, args []string) {
		startEscalationWorker(sweepOnce)
	},
}

var sweepOnce bool

func startEscalationWorker(once bool) {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()
	lg := deps.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if once {
		moved, err := deps.Workflow.EscalateStale(ctx)
		if err != nil {
			lg.Error("escalation sweep failed", "error", err)
			return
		}
		lg.Info("escalation sweep complete", "auto_accepted", moved)
		return
	}

	lg.Info("escalation worker is running. Press Ctrl+C to stop.",
		"auto_accept_after", deps.Config.Workflow.WithDefaults().AutoAcceptAfter,
		"interval", deps.Config.Workflow.WithDefaults().EscalationInterval)

	if err := deps.Workflow.RunEscalation(ctx); err != nil && ctx.Err() == nil {
		lg.Error("escalation worker stopped", "error", err)
		return
	}
	lg.Info("escalation worker shutdown complete")
}

func init() {
	escalationWorkerCmd.Flags().BoolVar(&sweepOnce, "once", false, "run a single sweep and exit")

	workerCmd.AddCommand(escalationWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
