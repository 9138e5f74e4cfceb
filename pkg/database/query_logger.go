package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// queryLogger sends gorm's output through the request-scoped slog logger so
// SQL lines carry request_id and user.
type queryLogger struct {
	slow  time.Duration
	level gormlogger.LogLevel
}

func newQueryLogger(slow time.Duration) *queryLogger {
	return &queryLogger{slow: slow, level: gormlogger.Warn}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *queryLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.WithCtx(ctx).Info("gorm: " + fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.WithCtx(ctx).Warn("gorm: " + fmt.Sprintf(msg, args...))
	}
}

func (l *queryLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.WithCtx(ctx).Error("gorm: " + fmt.Sprintf(msg, args...))
	}
}

// Trace logs failed statements and slow ones. A missing row is a normal
// lookup result and stays quiet.
func (l *queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.WithCtx(ctx).Error("gorm: query failed",
			"error", err, "sql", sql, "rows", rows, "elapsed", elapsed.String())
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.WithCtx(ctx).Warn("gorm: slow query",
			"sql", sql, "rows", rows, "elapsed", elapsed.String(), "threshold", l.slow.String())
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		logger.WithCtx(ctx).Debug("gorm: query", "sql", sql, "rows", rows, "elapsed", elapsed.String())
	}
}
