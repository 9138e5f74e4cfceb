// Package kernel wires the service graph: database, cache, storage disk,
// notification transport, services, job queue and scheduler.
package kernel

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shashiranjanraj/stockroom/app/jobs"
	"github.com/shashiranjanraj/stockroom/app/services"
	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/pkg/cache"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/mail"
	"github.com/shashiranjanraj/stockroom/pkg/notification"
	"github.com/shashiranjanraj/stockroom/pkg/queue"
	"github.com/shashiranjanraj/stockroom/pkg/schedule"
	"github.com/shashiranjanraj/stockroom/pkg/storage"
	"gorm.io/gorm"
)

// Deps are the external resources the kernel runs on. Zero fields are
// filled from config by Boot; tests pass their own.
type Deps struct {
	DB    *gorm.DB
	Cache cache.Store
	Disk  storage.Disk
	Mail  mail.Transport
	Queue queue.Driver
}

// Kernel holds one fully wired application.
type Kernel struct {
	DB        *gorm.DB
	Cache     cache.Store
	Disk      storage.Disk
	Notifier  *notification.Dispatcher
	Queue     *queue.Manager
	Scheduler *schedule.Scheduler

	Auth    *services.AuthService
	Catalog *services.CatalogService
	Stock   *services.StockService
	Sales   *services.SaleService
	Reports *services.ReportService
	Alerts  *services.AlertService

	redis *redis.Client
}

// Boot connects to everything config names and builds the kernel.
func Boot(ctx context.Context) (*Kernel, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := database.Connect(); err != nil {
		return nil, err
	}

	rdb, err := cache.Dial(ctx)
	if err != nil {
		return nil, err
	}
	deps := Deps{DB: database.DB, Mail: mail.Default()}
	if rdb != nil {
		deps.Cache = cache.NewRedis(rdb)
		deps.Queue = queue.NewRedisDriver(rdb)
	}

	disk, err := storage.Open(ctx)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	deps.Disk = disk

	k, err := New(deps)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	k.redis = rdb
	logger.Info("kernel: booted",
		"db", config.DatabaseDriver(), "redis", rdb != nil, "disk", config.StorageDefault())
	return k, nil
}

// New wires services on deps. DB and Disk are required; the rest default
// to in-process implementations.
func New(deps Deps) (*Kernel, error) {
	if deps.DB == nil {
		return nil, errors.New("kernel: database is required")
	}
	if deps.Disk == nil {
		return nil, errors.New("kernel: storage disk is required")
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemory()
	}
	if deps.Mail == nil {
		deps.Mail = mail.Default()
	}
	if deps.Queue == nil {
		deps.Queue = queue.NewMemoryDriver(256)
	}

	k := &Kernel{
		DB:       deps.DB,
		Cache:    deps.Cache,
		Disk:     deps.Disk,
		Notifier: notification.NewDispatcher(deps.Mail, config.AlertSlackWebhook()),
	}

	k.Auth = services.NewAuthService(deps.DB)
	k.Catalog = services.NewCatalogService(deps.DB, deps.Disk, deps.Cache)
	k.Stock = services.NewStockService(deps.DB, deps.Cache)
	k.Sales = services.NewSaleService(deps.DB, deps.Cache)
	k.Reports = services.NewReportService(deps.DB, deps.Cache, config.ReportCacheTTL())
	k.Alerts = services.NewAlertService(deps.DB, k.Notifier, services.AlertConfig{
		ManagerEmail:    config.ManagerEmail(),
		DispatchTimeout: config.AlertDispatchTimeout(),
	})

	k.Queue = queue.New(deps.Queue, deps.DB)
	jobs.Register(k.Queue, k.Alerts)

	k.Scheduler = schedule.New()
	if err := k.Scheduler.Cron(config.AlertSchedule()).
		Name("alerts:send").
		WithoutOverlapping().
		Run(k.sendAlerts); err != nil {
		return nil, fmt.Errorf("kernel: ALERT_SCHEDULE: %w", err)
	}

	return k, nil
}

// sendAlerts is the scheduled batch run.
func (k *Kernel) sendAlerts(ctx context.Context) error {
	res, err := k.Alerts.BatchCheck(ctx, services.BatchOptions{
		ExpiryHorizonDays: config.AlertExpiryDays(),
		Concurrency:       config.Int("ALERT_CONCURRENCY", 4),
	})
	if err != nil {
		return err
	}
	if n := len(res.Failures); n > 0 {
		return fmt.Errorf("alerts: %d alert(s) failed", n)
	}
	return nil
}

// Close releases the database and Redis connections.
func (k *Kernel) Close() error {
	var errs []error
	if k.redis != nil {
		errs = append(errs, k.redis.Close())
	}
	if sqlDB, err := k.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	return errors.Join(errs...)
}
