// Package jobs holds the background jobs the queue runs.
package jobs

import (
	"context"
	"fmt"

	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

// AlertBatchName is the queue name of AlertBatch.
const AlertBatchName = "alerts.batch"

// AlertBatch runs one alert batch off the request path. A run that leaves
// failures is retried; products already alerted are skipped by the 24h
// debounce, so a retry only re-sends what failed.
type AlertBatch struct {
	ExpiryDays  int    `json:"expiry_days"`
	Force       bool   `json:"force"`
	Concurrency int    `json:"concurrency"`
	RequestedBy string `json:"requested_by"`

	alerts *services.AlertService
}

func (j *AlertBatch) Handle(ctx context.Context) error {
	res, err := j.alerts.BatchCheck(ctx, services.BatchOptions{
		ExpiryHorizonDays: j.ExpiryDays,
		Force:             j.Force,
		Concurrency:       j.Concurrency,
	})
	if err != nil {
		return err
	}
	logger.WithCtx(ctx).Info("alerts: queued batch finished",
		"low_stock_sent", res.LowStockSent, "expiry_sent", res.ExpirySent,
		"failures", len(res.Failures), "requested_by", j.RequestedBy)
	if len(res.Failures) > 0 {
		return fmt.Errorf("alerts: %d alert(s) failed, first: %s", len(res.Failures), res.Failures[0].Error)
	}
	return nil
}

// Register binds the job types to m.
func Register(m *queue.Manager, alerts *services.AlertService) {
	m.Register(AlertBatchName, func() queue.Job { return &AlertBatch{alerts: alerts} })
}
