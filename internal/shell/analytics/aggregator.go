package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/store"
)

// =============================================================================
// Background Aggregator
// =============================================================================

// Aggregator folds unprocessed contact events into contact counters in the
// background.
type Aggregator struct {
	store     store.Store
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// AggregatorConfig holds configuration for the background aggregator.
type AggregatorConfig struct {
	Store     store.Store
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

// NewAggregator creates a new background aggregator.
func NewAggregator(cfg AggregatorConfig) *Aggregator {
	if cfg.Interval == 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Aggregator{
		store:     cfg.Store,
		interval:  cfg.Interval,
		batchSize: cfg.BatchSize,
		logger:    cfg.Logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start runs the aggregation loop until Stop is called or ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context) {
	a.logger.Info("starting contact aggregator",
		"interval", a.interval,
		"batch_size", a.batchSize,
	)

	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	defer close(a.doneCh)

	a.applyBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("contact aggregator stopped due to context cancellation")
			return
		case <-a.stopCh:
			a.logger.Info("contact aggregator stopped")
			return
		case <-ticker.C:
			a.applyBatch(ctx)
		}
	}
}

// Stop signals the aggregator to stop and waits for it to finish.
func (a *Aggregator) Stop() {
	close(a.stopCh)
	<-a.doneCh
}

// FlushNow applies batches until no unprocessed events remain and returns the
// number of events applied.
func (a *Aggregator) FlushNow(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := a.apply(ctx)
		total += n
		if err != nil || n < a.batchSize {
			return total, err
		}
	}
}

func (a *Aggregator) applyBatch(ctx context.Context) {
	n, err := a.apply(ctx)
	if err != nil {
		a.logger.Error("failed to apply contact events", "error", err)
		return
	}
	if n > 0 {
		a.logger.Info("applied contact events", "count", n)
	}
}

// apply reads one batch and folds it in a single transaction so counters
// and processed markers never diverge.
func (a *Aggregator) apply(ctx context.Context) (int, error) {
	var applied int
	err := a.store.WithTx(ctx, func(tx store.Store) error {
		events, err := tx.ListUnprocessedContactEvents(ctx, a.batchSize)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return nil
		}
		if err := tx.ApplyContactEvents(ctx, events, time.Now()); err != nil {
			return err
		}
		applied = len(events)
		a.logDebugTotals(domain.TallyContacts(events))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}

func (a *Aggregator) logDebugTotals(t domain.ContactTotals) {
	a.logger.Debug("contact totals",
		"businesses", len(t.Businesses),
		"products", len(t.Products),
		"services", len(t.Services),
	)
}
