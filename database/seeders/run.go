// Package seeders fills a fresh database with sample catalog data and the
// first admin account.
//
// A seeder registers itself from init and runs with `stockroom seed`:
//
//	func init() { seeders.Register("catalog", seedCatalog) }
package seeders

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"gorm.io/gorm"
)

// Seeder writes seed rows inside the transaction it is given. Seeders must
// be idempotent; `stockroom seed` may run more than once.
type Seeder func(tx *gorm.DB) error

type registered struct {
	name string
	fn   Seeder
}

var (
	mu       sync.Mutex
	registry []registered
)

func Register(name string, fn Seeder) {
	mu.Lock()
	defer mu.Unlock()
	registry = append(registry, registered{name: name, fn: fn})
}

// Names lists registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, 0, len(registry))
	for _, r := range registry {
		out = append(out, r.name)
	}
	return out
}

// RunAll runs the seeders named in only, or all of them when only is empty,
// in registration order. Each runs in its own transaction; the first failure
// stops the run.
func RunAll(db *gorm.DB, out io.Writer, only ...string) error {
	mu.Lock()
	todo := slices.Clone(registry)
	mu.Unlock()

	if len(only) > 0 {
		for _, name := range only {
			if !slices.ContainsFunc(todo, func(r registered) bool { return r.name == name }) {
				return fmt.Errorf("seeders: unknown seeder %q", name)
			}
		}
		todo = slices.DeleteFunc(todo, func(r registered) bool { return !slices.Contains(only, r.name) })
	}

	for _, r := range todo {
		fmt.Fprintf(out, "  Running seeder: %s ... ", r.name)
		if err := db.Transaction(r.fn); err != nil {
			fmt.Fprintln(out, "FAILED")
			return fmt.Errorf("seeder %q: %w", r.name, err)
		}
		fmt.Fprintln(out, "done")
	}
	return nil
}
