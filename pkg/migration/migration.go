// Package migration runs ordered, batch-tracked schema migrations.
//
// Migrations register themselves from init():
//
//	func init() {
//	    migration.Register("20260101000002_create_products_table", &CreateProductsTable{})
//	}
package migration

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"gorm.io/gorm"
)

// Migration is a reversible schema change.
type Migration interface {
	Up(db *gorm.DB) error
	Down(db *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (record) TableName() string { return "stockroom_migrations" }

type registered struct {
	name string
	m    Migration
}

var (
	regMu    sync.Mutex
	registry []registered
)

// Register adds m under a timestamp-prefixed name. Names sort chronologically.
func Register(name string, m Migration) {
	regMu.Lock()
	defer regMu.Unlock()
	registry = append(registry, registered{name: name, m: m})
}

func snapshot() []registered {
	regMu.Lock()
	defer regMu.Unlock()
	out := make([]registered, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// Runner executes and tracks migrations against one database.
type Runner struct {
	db  *gorm.DB
	out io.Writer
}

// New creates a Runner that reports progress to out (io.Discard is fine).
func New(db *gorm.DB, out io.Writer) *Runner {
	if out == nil {
		out = io.Discard
	}
	return &Runner{db: db, out: out}
}

func (r *Runner) ensureTable() error {
	return r.db.AutoMigrate(&record{})
}

func (r *Runner) ran() (map[string]record, error) {
	var rows []record
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, err
	}
	m := make(map[string]record, len(rows))
	for _, rec := range rows {
		m[rec.Name] = rec
	}
	return m, nil
}

// Run applies every pending migration as one batch and returns how many ran.
func (r *Runner) Run() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran()
	if err != nil {
		return 0, fmt.Errorf("migration: fetch ran: %w", err)
	}

	batch := r.lastBatch() + 1
	count := 0
	for _, reg := range snapshot() {
		if _, ok := done[reg.name]; ok {
			continue
		}
		fmt.Fprintf(r.out, "  ▶ Migrating: %s\n", reg.name)
		if err := reg.m.Up(r.db); err != nil {
			return count, fmt.Errorf("migration: %s up: %w", reg.name, err)
		}
		if err := r.db.Create(&record{Name: reg.name, Batch: batch}).Error; err != nil {
			return count, fmt.Errorf("migration: record %s: %w", reg.name, err)
		}
		count++
	}

	if count == 0 {
		fmt.Fprintln(r.out, "Nothing to migrate.")
		return 0, nil
	}
	logger.Info("migration: done", "ran", count, "batch", batch)
	return count, nil
}

// Rollback reverses the most recent batch, newest first.
func (r *Runner) Rollback() (int, error) {
	if err := r.ensureTable(); err != nil {
		return 0, fmt.Errorf("migration: ensure table: %w", err)
	}
	batch := r.lastBatch()
	if batch == 0 {
		fmt.Fprintln(r.out, "Nothing to roll back.")
		return 0, nil
	}

	var rows []record
	if err := r.db.Where("batch = ?", batch).Order("id desc").Find(&rows).Error; err != nil {
		return 0, err
	}

	byName := make(map[string]Migration)
	for _, reg := range snapshot() {
		byName[reg.name] = reg.m
	}

	for i, rec := range rows {
		m, ok := byName[rec.Name]
		if !ok {
			return i, fmt.Errorf("migration: cannot rollback %s: not registered", rec.Name)
		}
		fmt.Fprintf(r.out, "  ◀ Rolling back: %s\n", rec.Name)
		if err := m.Down(r.db); err != nil {
			return i, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.Delete(&rec).Error; err != nil {
			return i, err
		}
	}
	return len(rows), nil
}

// Status writes one line per registered migration.
func (r *Runner) Status() error {
	if err := r.ensureTable(); err != nil {
		return err
	}
	done, err := r.ran()
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%-60s  %-8s  %s\n", "Migration", "Status", "Batch")
	for _, reg := range snapshot() {
		if rec, ok := done[reg.name]; ok {
			fmt.Fprintf(r.out, "%-60s  %-8s  %d\n", reg.name, "Ran", rec.Batch)
		} else {
			fmt.Fprintf(r.out, "%-60s  %-8s  -\n", reg.name, "Pending")
		}
	}
	return nil
}

func (r *Runner) lastBatch() int {
	var res struct{ Max int }
	r.db.Model(&record{}).Select("COALESCE(MAX(batch), 0) as max").Scan(&res)
	return res.Max
}
