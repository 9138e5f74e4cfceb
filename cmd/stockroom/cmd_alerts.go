package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
)

var (
	alertsExpiryDaysFlag  int
	alertsForceFlag       bool
	alertsConcurrencyFlag int
	alertsQueueFlag       bool
)

// stockroom alerts:send
var alertsSendCmd = &cobra.Command{
	Use:   "alerts:send",
	Short: "Send due low-stock and expiry alerts to the manager",
	Long: `Checks every product once and mails the manager about low stock and
products expiring within --expiry-days. A product is alerted at most once per
24 hours per kind unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmdContext(cmd)
		k, err := kernel.Boot(ctx)
		if err != nil {
			return err
		}
		defer k.Close()

		out := cmd.OutOrStdout()
		if alertsQueueFlag {
			job := &jobs.AlertBatch{
				ExpiryDays:  alertsExpiryDaysFlag,
				Force:       alertsForceFlag,
				Concurrency: alertsConcurrencyFlag,
				RequestedBy: services.SystemActor.Username,
			}
			if err := k.Queue.Dispatch(ctx, jobs.AlertBatchName, job); err != nil {
				return err
			}
			fmt.Fprintln(out, "Alert batch queued.")
			return nil
		}

		res, err := k.Alerts.BatchCheck(ctx, services.BatchOptions{
			ExpiryHorizonDays: alertsExpiryDaysFlag,
			Force:             alertsForceFlag,
			Concurrency:       alertsConcurrencyFlag,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(out, "Low stock alerts sent: %d\n", res.LowStockSent)
		fmt.Fprintf(out, "Expiry alerts sent:    %d\n", res.ExpirySent)
		if len(res.Failures) == 0 {
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PRODUCT\tKIND\tERROR")
		for _, f := range res.Failures {
			fmt.Fprintf(w, "%s (#%d)\t%s\t%s\n", f.Product, f.ProductID, f.Kind, f.Error)
		}
		_ = w.Flush()
		return fmt.Errorf("%d alert(s) failed", len(res.Failures))
	},
}

func init() {
	alertsSendCmd.Flags().IntVar(&alertsExpiryDaysFlag, "expiry-days", config.AlertExpiryDays(), "Alert on products expiring within this many days")
	alertsSendCmd.Flags().BoolVar(&alertsForceFlag, "force", false, "Ignore the 24h debounce")
	alertsSendCmd.Flags().IntVar(&alertsConcurrencyFlag, "concurrency", 4, "Alerts sent in parallel")
	alertsSendCmd.Flags().BoolVar(&alertsQueueFlag, "queue", false, "Push the batch onto the job queue instead of running it here")
}
