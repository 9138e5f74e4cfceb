// Package logger provides the service-wide structured logger built on log/slog.
//
// Handlers should log through WithCtx so every line carries the request id
// and, once authenticated, the user:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("stock updated", "product_id", p.ID, "quantity", p.Quantity)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/shashiranjanraj/stockroom/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv())
	slog.SetDefault(L)
}

// New builds a logger for env: JSON in production, text elsewhere. LOG_LEVEL
// (debug, info, warn, error) overrides the env's default level.
func New(w io.Writer, env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level(env)}
	if env == "production" || env == "prod" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func level(env string) slog.Level {
	var lv slog.Level
	if err := lv.UnmarshalText([]byte(strings.TrimSpace(config.Get("LOG_LEVEL", "")))); err == nil {
		return lv
	}
	switch env {
	case "production", "prod":
		return slog.LevelInfo
	case "test":
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

type ctxKey struct{}

// WithCtx returns the logger stored in ctx by the HTTP or queue middleware,
// or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
