package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/app/models"
	"github.com/shashiranjanraj/stockroom/app/notifications"
	"github.com/shashiranjanraj/stockroom/app/repositories"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/metrics"
	"github.com/shashiranjanraj/stockroom/pkg/notification"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// AlertKind names a notification category with its own debounce stamp.
type AlertKind string

const (
	KindLowStock AlertKind = "low_stock"
	KindExpiry   AlertKind = "expiry"
)

// NotifyInterval is the minimum gap between two alerts of one kind for one
// product.
const NotifyInterval = 24 * time.Hour

func (k AlertKind) column() string {
	if k == KindExpiry {
		return "last_expiry_notified"
	}
	return "last_low_stock_notified"
}

func (k AlertKind) stamp(p models.Product) *time.Time {
	if k == KindExpiry {
		return p.LastExpiryNotified
	}
	return p.LastLowStockNotified
}

// ShouldNotify reports whether an alert of kind may go out for p at now:
// forced, never sent, or last sent strictly more than 24h ago.
func ShouldNotify(p models.Product, kind AlertKind, now time.Time, force bool) bool {
	if force {
		return true
	}
	last := kind.stamp(p)
	if last == nil {
		return true
	}
	return now.Sub(*last) > NotifyInterval
}

// Sender delivers a notification to an address.
type Sender interface {
	Send(ctx context.Context, address string, n notification.Notification) error
}

// AlertConfig carries the alert settings read from config.
type AlertConfig struct {
	ManagerEmail    string
	DispatchTimeout time.Duration
}

// BatchOptions tunes one BatchCheck run.
type BatchOptions struct {
	ExpiryHorizonDays int
	Force             bool
	// Concurrency bounds parallel dispatch; values below 1 mean sequential.
	Concurrency int
}

// Failure records one product whose alert could not be sent.
type Failure struct {
	ProductID uint      `json:"product_id"`
	Product   string    `json:"product"`
	Kind      AlertKind `json:"kind"`
	Error     string    `json:"error"`
}

// BatchResult summarises a BatchCheck run.
type BatchResult struct {
	LowStockSent int       `json:"low_stock_sent"`
	ExpirySent   int       `json:"expiry_sent"`
	Failures     []Failure `json:"failures"`
}

// AlertService sends debounced low-stock and expiry alerts.
type AlertService struct {
	db       *gorm.DB
	products *repositories.ProductRepository
	sender   Sender
	cfg      AlertConfig
	now      func() time.Time
}

func NewAlertService(db *gorm.DB, sender Sender, cfg AlertConfig) *AlertService {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 10 * time.Second
	}
	return &AlertService{
		db:       db,
		products: repositories.NewProductRepository(db),
		sender:   sender,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests and backfills.
func (s *AlertService) SetClock(now func() time.Time) { s.now = now }

// NotifyLowStock sends the low-stock alert for p and stamps
// last_low_stock_notified. A failed dispatch leaves the stamp unchanged and
// returns ErrTransport.
func (s *AlertService) NotifyLowStock(ctx context.Context, p models.Product) error {
	return s.notify(ctx, p, KindLowStock, &notifications.LowStock{Product: p})
}

// NotifyExpiry sends the expiry alert for p and stamps last_expiry_notified.
func (s *AlertService) NotifyExpiry(ctx context.Context, p models.Product, daysLeft int) error {
	return s.notify(ctx, p, KindExpiry, &notifications.Expiry{Product: p, DaysLeft: daysLeft})
}

func (s *AlertService) notify(ctx context.Context, p models.Product, kind AlertKind, n notification.Notification) error {
	if s.cfg.ManagerEmail == "" {
		return invalid("manager_email", "MANAGER_EMAIL is not configured.")
	}

	dctx, cancel := context.WithTimeout(ctx, s.cfg.DispatchTimeout)
	err := s.sender.Send(dctx, s.cfg.ManagerEmail, n)
	cancel()
	if err != nil {
		metrics.AlertsFailed.WithLabelValues(string(kind)).Inc()
		return fmt.Errorf("%w: %s alert for product %d: %w", ErrTransport, kind, p.ID, err)
	}

	// Stored with millisecond precision so the compare-and-set below matches
	// on every supported database.
	now := s.now().UTC().Truncate(time.Millisecond)
	ok, err := s.products.WithTx(s.db.WithContext(ctx)).StampNotified(p.ID, kind.column(), kind.stamp(p), now)
	if err != nil {
		return fmt.Errorf("stamp %s for product %d: %w", kind, p.ID, err)
	}
	if !ok {
		logger.WithCtx(ctx).Warn("alerts: stamp already advanced by another sender",
			"product_id", p.ID, "kind", kind)
	}

	metrics.AlertsSent.WithLabelValues(string(kind)).Inc()
	logger.WithCtx(ctx).Info("alerts: sent", "product_id", p.ID, "product", p.Name, "kind", kind)
	return nil
}

type alertJob struct {
	product  models.Product
	kind     AlertKind
	daysLeft int
}

// BatchCheck sends every due alert: low-stock candidates by quantity, then
// products expiring within the horizon by date. Each product is handled on
// its own; failures are collected and never stop the run.
func (s *AlertService) BatchCheck(ctx context.Context, opts BatchOptions) (BatchResult, error) {
	var res BatchResult
	if s.cfg.ManagerEmail == "" {
		return res, invalid("manager_email", "MANAGER_EMAIL is not configured.")
	}
	if opts.ExpiryHorizonDays < 0 {
		return res, invalid("expiry_days", "The expiry horizon must be greater than or equal to 0.")
	}

	now := s.now()
	today := models.DateOf(now)
	repo := s.products.WithTx(s.db.WithContext(ctx))

	low, err := repo.LowStock()
	if err != nil {
		return res, fmt.Errorf("load low stock candidates: %w", err)
	}
	expiring, err := repo.ExpiringBy(today.AddDate(0, 0, opts.ExpiryHorizonDays))
	if err != nil {
		return res, fmt.Errorf("load expiry candidates: %w", err)
	}

	var jobs []alertJob
	for _, p := range low {
		if ShouldNotify(p, KindLowStock, now, opts.Force) {
			jobs = append(jobs, alertJob{product: p, kind: KindLowStock})
		}
	}
	for _, p := range expiring {
		if ShouldNotify(p, KindExpiry, now, opts.Force) {
			jobs = append(jobs, alertJob{product: p, kind: KindExpiry, daysLeft: *p.DaysUntilExpiry(now)})
		}
	}

	limit := opts.Concurrency
	if limit < 1 {
		limit = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			var err error
			if job.kind == KindExpiry {
				err = s.NotifyExpiry(gctx, job.product, job.daysLeft)
			} else {
				err = s.NotifyLowStock(gctx, job.product)
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && job.kind == KindExpiry:
				res.ExpirySent++
			case err == nil:
				res.LowStockSent++
			default:
				res.Failures = append(res.Failures, Failure{
					ProductID: job.product.ID,
					Product:   job.product.Name,
					Kind:      job.kind,
					Error:     err.Error(),
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return res, err
	}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	logger.WithCtx(ctx).Info("alerts: batch finished",
		"low_stock_sent", res.LowStockSent, "expiry_sent", res.ExpirySent, "failures", len(res.Failures))
	return res, nil
}
