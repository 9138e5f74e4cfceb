// Package testkit holds helpers shared by package tests: a migrated
// in-memory database, a recording mail transport and a JSON-scenario runner
// for HTTP handlers.
package testkit

import (
	"fmt"
	"io"
	"sync/atomic"
	"testing"

	_ "github.com/shashiranjanraj/stockroom/database/migrations"
	"github.com/shashiranjanraj/stockroom/pkg/database"
	"github.com/shashiranjanraj/stockroom/pkg/migration"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var dbSeq atomic.Int64

// DB opens a fresh, fully migrated in-memory sqlite database that lives
// until the test ends.
func DB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:stockroom_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := database.Open("sqlite", dsn)
	require.NoError(t, err, "testkit: open sqlite")

	_, err = migration.New(db, io.Discard).Run()
	require.NoError(t, err, "testkit: migrate")

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
