package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
)

var queueWorkersFlag int

// stockroom queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Start the queue worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 1
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🚀 Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		err = k.Queue.Work(ctx, workers)
		fmt.Fprintln(cmd.OutOrStdout(), "⚡ Queue worker stopped.")
		return err
	},
}

// stockroom schedule:run
var scheduleRunCmd = &cobra.Command{
	Use:   "schedule:run",
	Short: "Start the task scheduler",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Registered scheduled tasks:")
		for _, t := range k.Scheduler.List() {
			fmt.Fprintln(out, "  •", t)
		}
		fmt.Fprintln(out, "🕐 Scheduler started. Press Ctrl+C to stop.")
		err = k.Scheduler.Start(ctx)
		fmt.Fprintln(out, "⚡ Scheduler stopped.")
		return err
	},
}

// cmdContext is cmd's context, or Background when run outside Execute.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", config.QueueWorkers(), "Number of concurrent workers")
}
