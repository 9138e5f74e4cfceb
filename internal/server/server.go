// Package server runs the HTTP listener, the scheduler and the queue workers
// until a signal arrives, then shuts all three down gracefully.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/stockroom/config"
	"github.com/shashiranjanraj/stockroom/internal/kernel"
	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout bounds how long in-flight requests get to finish.
const ShutdownTimeout = 20 * time.Second

// Options select which loops Start runs.
type Options struct {
	Addr      string
	Scheduler bool
	Workers   int // 0 disables the in-process queue workers
}

// DefaultOptions serves on APP_PORT with the scheduler and QUEUE_WORKERS
// workers.
func DefaultOptions() Options {
	return Options{
		Addr:      ":" + config.AppPort(),
		Scheduler: true,
		Workers:   config.QueueWorkers(),
	}
}

// Start blocks until SIGINT/SIGTERM.
func Start(k *kernel.Kernel, opts Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return Run(ctx, k, opts)
}

// Run serves until ctx is done.
func Run(ctx context.Context, k *kernel.Kernel, opts Options) error {
	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           k.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server: listening", "addr", opts.Addr, "env", config.AppEnv())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: listen: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("server: shutting down, waiting for in-flight requests")

		sctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("server: shutdown: %w", err)
		}
		return nil
	})

	if opts.Scheduler {
		g.Go(func() error { return k.Scheduler.Start(gctx) })
	}
	if opts.Workers > 0 {
		g.Go(func() error { return k.Queue.Work(gctx, opts.Workers) })
	}

	err := g.Wait()
	logger.Info("server: stopped")
	return err
}
