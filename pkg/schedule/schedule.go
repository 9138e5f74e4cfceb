// Package schedule runs tasks on cron expressions or fixed intervals.
//
//	s := schedule.New()
//	s.Cron("0 8 * * *").Name("alerts:send").WithoutOverlapping().Run(sendAlerts)
//	s.Every(10 * time.Minute).Name("cache:warm").Run(warm)
//	go s.Start(ctx)
package schedule

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
)

// Task is the work a scheduled entry runs.
type Task func(ctx context.Context) error

type entry struct {
	id        string
	interval  time.Duration
	spec      *cronSpec
	expr      string
	task      Task
	noOverlap bool

	mu      sync.Mutex
	running bool
	lastRun time.Time
}

// Scheduler holds entries and dispatches them when due.
type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	now     func() time.Time
}

func New() *Scheduler {
	return &Scheduler{now: time.Now}
}

// Builder configures one entry before Run registers it.
type Builder struct {
	s   *Scheduler
	e   *entry
	err error
}

// Cron starts an entry on a 5-field expression (minute hour dom month dow).
// Fields accept *, n, a-b, */n, a-b/n and comma lists.
func (s *Scheduler) Cron(expr string) *Builder {
	spec, err := parseCron(expr)
	return &Builder{s: s, e: &entry{spec: spec, expr: expr}, err: err}
}

// Every starts an entry that runs each d, first on the next tick.
func (s *Scheduler) Every(d time.Duration) *Builder {
	var err error
	if d <= 0 {
		err = fmt.Errorf("schedule: interval must be positive, got %s", d)
	}
	return &Builder{s: s, e: &entry{interval: d}, err: err}
}

// Name sets the id used in logs and List.
func (b *Builder) Name(id string) *Builder {
	b.e.id = id
	return b
}

// WithoutOverlapping skips a run while the previous one is still going.
func (b *Builder) WithoutOverlapping() *Builder {
	b.e.noOverlap = true
	return b
}

// Run registers the entry.
func (b *Builder) Run(task Task) error {
	if b.err != nil {
		return b.err
	}
	b.e.task = task
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	if b.e.id == "" {
		b.e.id = fmt.Sprintf("task-%d", len(b.s.entries)+1)
	}
	b.s.entries = append(b.s.entries, b.e)
	return nil
}

// Start ticks every second and dispatches due entries until ctx is done,
// then waits for running tasks.
func (s *Scheduler) Start(ctx context.Context) error {
	logger.Info("schedule: scheduler started", "entries", len(s.snapshot()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: scheduler stopped")
			return nil
		case <-ticker.C:
			now := s.now()
			for _, e := range s.snapshot() {
				if e.due(now) {
					s.dispatch(ctx, e, now)
				}
			}
		}
	}
}

// RunDue runs every entry due at now synchronously and returns how many ran.
// Intervals count as due when they have never run in this process.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	ran := 0
	for _, e := range s.snapshot() {
		if e.due(now) {
			e.mark(now)
			s.execute(ctx, e)
			ran++
		}
	}
	return ran
}

// List describes the registered entries for the CLI.
func (s *Scheduler) List() []string {
	out := []string{}
	for _, e := range s.snapshot() {
		freq := e.expr
		if freq == "" {
			freq = "every " + e.interval.String()
		}
		out = append(out, fmt.Sprintf("%s  [%s]", e.id, freq))
	}
	return out
}

func (s *Scheduler) snapshot() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entry(nil), s.entries...)
}

// due reports whether e should fire at now. Cron entries fire at most once
// per matching minute.
func (e *entry) due(now time.Time) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spec != nil {
		minute := now.Truncate(time.Minute)
		return e.spec.match(now) && !e.lastRun.Equal(minute)
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

func (e *entry) mark(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.spec != nil {
		e.lastRun = now.Truncate(time.Minute)
	} else {
		e.lastRun = now
	}
}

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) {
	e.mark(now)

	e.mu.Lock()
	if e.noOverlap && e.running {
		e.mu.Unlock()
		logger.Warn("schedule: skipping overlapping task", "id", e.id)
		return
	}
	e.running = true
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()
		s.execute(ctx, e)
	}()
}

func (s *Scheduler) execute(ctx context.Context, e *entry) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("schedule: task panicked", "id", e.id, "panic", fmt.Sprint(r))
		}
	}()
	start := time.Now()
	logger.Info("schedule: running task", "id", e.id)
	if err := e.task(ctx); err != nil {
		logger.Error("schedule: task failed", "id", e.id, "error", err)
		return
	}
	logger.Info("schedule: task finished", "id", e.id, "duration", time.Since(start).String())
}

// ------------------- Cron -------------------

type cronSpec struct {
	minute, hour, dom, month, dow []bool
	domStar, dowStar              bool
}

func parseCron(expr string) (*cronSpec, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, fmt.Errorf("schedule: cron %q: want 5 fields, got %d", expr, len(fields))
	}
	var (
		spec cronSpec
		err  error
	)
	bounds := []struct {
		dst      *[]bool
		lo, hi   int
		fieldIdx int
	}{
		{&spec.minute, 0, 59, 0},
		{&spec.hour, 0, 23, 1},
		{&spec.dom, 1, 31, 2},
		{&spec.month, 1, 12, 3},
		{&spec.dow, 0, 7, 4},
	}
	for _, b := range bounds {
		if *b.dst, err = parseField(fields[b.fieldIdx], b.lo, b.hi); err != nil {
			return nil, fmt.Errorf("schedule: cron %q: %w", expr, err)
		}
	}
	if spec.dow[7] {
		spec.dow[0] = true
	}
	spec.domStar = strings.HasPrefix(fields[2], "*")
	spec.dowStar = strings.HasPrefix(fields[4], "*")
	return &spec, nil
}

func parseField(field string, lo, hi int) ([]bool, error) {
	set := make([]bool, hi+1)
	for _, part := range strings.Split(field, ",") {
		rng, stepStr, hasStep := strings.Cut(part, "/")
		step := 1
		if hasStep {
			n, err := strconv.Atoi(stepStr)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("bad step in %q", part)
			}
			step = n
		}

		start, end := lo, hi
		switch {
		case rng == "*":
		case strings.Contains(rng, "-"):
			a, b, _ := strings.Cut(rng, "-")
			var err1, err2 error
			start, err1 = strconv.Atoi(a)
			end, err2 = strconv.Atoi(b)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
		default:
			n, err := strconv.Atoi(rng)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", part)
			}
			start = n
			if !hasStep {
				end = n
			}
		}
		if start < lo || end > hi || start > end {
			return nil, fmt.Errorf("%q out of range %d-%d", part, lo, hi)
		}
		for v := start; v <= end; v += step {
			set[v] = true
		}
	}
	return set, nil
}

func (c *cronSpec) match(t time.Time) bool {
	if !c.minute[t.Minute()] || !c.hour[t.Hour()] || !c.month[int(t.Month())] {
		return false
	}
	dom, dow := c.dom[t.Day()], c.dow[int(t.Weekday())]
	if c.domStar || c.dowStar {
		return dom && dow
	}
	return dom || dow
}
