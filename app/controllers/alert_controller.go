package controllers

import (
	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/pkg/ctx"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
)

// RunAlertsInput is the optional body of POST /api/alerts/run.
type RunAlertsInput struct {
	ExpiryDays  *int `json:"expiry_days" validate:"nullable,gte=0"`
	Force       bool `json:"force"`
	Concurrency int  `json:"concurrency" validate:"gte=0,lte=32"`
	Async       bool `json:"async"`
}

type AlertController struct {
	alerts     *services.AlertService
	queue      *queue.Manager
	expiryDays int
}

// NewAlertController builds the controller. q may be nil, in which case
// every run is synchronous.
func NewAlertController(alerts *services.AlertService, q *queue.Manager, expiryDays int) *AlertController {
	return &AlertController{alerts: alerts, queue: q, expiryDays: expiryDays}
}

// Run sends every due alert now, or queues the batch when async is set.
func (ac *AlertController) Run(c *ctx.Context) {
	who := actor(c)
	if !who.CanManage() {
		fail(c, services.ErrPermissionDenied)
		return
	}

	var in RunAlertsInput
	if c.R.ContentLength != 0 && !c.BindJSON(&in) {
		return
	}
	days := ac.expiryDays
	if in.ExpiryDays != nil {
		days = *in.ExpiryDays
	}

	if in.Async && ac.queue != nil {
		job := &jobs.AlertBatch{ExpiryDays: days, Force: in.Force, Concurrency: in.Concurrency, RequestedBy: who.Username}
		if err := ac.queue.Dispatch(c.Context(), jobs.AlertBatchName, job); err != nil {
			fail(c, err)
			return
		}
		c.Accepted("Alert batch queued.")
		return
	}

	res, err := ac.alerts.BatchCheck(c.Context(), services.BatchOptions{
		ExpiryHorizonDays: days,
		Force:             in.Force,
		Concurrency:       in.Concurrency,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.Success(res)
}
