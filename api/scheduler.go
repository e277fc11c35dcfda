/*
scheduler.go - Automated entitlement sweep

PURPOSE:
  Periodically makes sure every employee whose hire anniversary has passed
  this year has their ENTITLEMENT entry, without waiting for someone to open
  a balance page.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Calls Ledger.EnsureEntitlementEntry for every employee and the current
    year. That call is idempotent, so overlapping sweeps or a sweep racing
    a balance read credit at most once.
  - Failures are logged per employee and never stop the sweep

CONFIGURATION:
  - scheduler.interval: How often to sweep (default: 24h)
  - scheduler.enabled:  Whether the scheduler runs (default: true)

USAGE:
  scheduler := NewEntitlementScheduler(store, ledger, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - timeoff/ledger.go: EnsureEntitlementEntry
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/leave-engine/generic"
	"github.com/warp/leave-engine/timeoff"
)

// SweepResult summarizes one sweep.
type SweepResult struct {
	Year     int
	Checked  int
	Credited int
	Failed   int
}

// EntitlementScheduler credits yearly entitlements in the background.
type EntitlementScheduler struct {
	Directory     generic.Directory
	Ledger        *timeoff.Ledger
	CheckInterval time.Duration
	Enabled       bool
	Now           func() time.Time

	logger *zap.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewEntitlementScheduler creates a new scheduler.
func NewEntitlementScheduler(dir generic.Directory, ledger *timeoff.Ledger, logger *zap.Logger) *EntitlementScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EntitlementScheduler{
		Directory:     dir,
		Ledger:        ledger,
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
		Now:           time.Now,
		logger:        logger.Named("scheduler"),
	}
}

// Start begins the scheduler. Calling Start twice is a no-op.
func (es *EntitlementScheduler) Start() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.Enabled {
		es.logger.Info("scheduler disabled, not starting")
		return
	}
	if es.ticker != nil {
		return
	}

	es.ticker = time.NewTicker(es.CheckInterval)
	es.stop = make(chan struct{})
	es.wg.Add(1)

	go es.run()

	es.logger.Info("scheduler started", zap.Duration("interval", es.CheckInterval))
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (es *EntitlementScheduler) Stop() {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.ticker != nil {
		es.ticker.Stop()
		close(es.stop)
		es.wg.Wait()
		es.ticker = nil
		es.logger.Info("scheduler stopped")
	}
}

func (es *EntitlementScheduler) run() {
	defer es.wg.Done()

	// Run immediately on start
	es.sweep(context.Background())

	for {
		select {
		case <-es.ticker.C:
			es.sweep(context.Background())
		case <-es.stop:
			return
		}
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (es *EntitlementScheduler) RunNow(ctx context.Context) SweepResult {
	return es.sweep(ctx)
}

func (es *EntitlementScheduler) sweep(ctx context.Context) SweepResult {
	res := SweepResult{Year: es.Now().UTC().Year()}

	employees, err := es.Directory.ListEmployees(ctx, "")
	if err != nil {
		es.logger.Error("failed to list employees", zap.Error(err))
		return res
	}

	for _, emp := range employees {
		res.Checked++
		entry, err := es.Ledger.EnsureEntitlementEntry(ctx, emp.ID, res.Year)
		if err != nil {
			res.Failed++
			es.logger.Error("entitlement sweep failed",
				zap.String("employee_id", string(emp.ID)),
				zap.Int("year", res.Year),
				zap.Error(err),
			)
			continue
		}
		if entry != nil {
			res.Credited++
		}
	}

	if res.Credited > 0 || res.Failed > 0 {
		es.logger.Info("entitlement sweep completed",
			zap.Int("year", res.Year),
			zap.Int("checked", res.Checked),
			zap.Int("credited", res.Credited),
			zap.Int("failed", res.Failed),
		)
	}
	return res
}
