// Package analytics records WhatsApp contact events and folds them into the
// contact counters used by the popularity sort.
package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
)

// EventSink persists contact events.
type EventSink interface {
	RecordContactEvent(ctx context.Context, event *domain.ContactEvent) error
}

// =============================================================================
// Recorder
// =============================================================================

// Recorder records contact events without ever failing the caller. A visitor
// opening a chat must not be blocked by analytics.
type Recorder struct {
	sink    EventSink
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder. Asynchronous writes are bounded by timeout.
func NewRecorder(sink EventSink, timeout time.Duration, logger *slog.Logger) *Recorder {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{sink: sink, timeout: timeout, logger: logger}
}

// Record persists one event and reports whether it was stored. Failures are
// logged only.
func (r *Recorder) Record(ctx context.Context, businessID, productID, serviceID string) bool {
	event, err := domain.NewContactEvent(businessID, productID, serviceID)
	if err != nil {
		r.logger.Warn("dropping contact event", "error", err)
		return false
	}
	if err := r.sink.RecordContactEvent(ctx, &event); err != nil {
		r.logger.Error("failed to record contact event",
			"business_id", businessID,
			"product_id", productID,
			"service_id", serviceID,
			"error", err,
		)
		return false
	}
	return true
}

// Go records in the background, detached from the cancellation of ctx so a
// finished request does not abort the write.
func (r *Recorder) Go(ctx context.Context, businessID, productID, serviceID string) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		r.Record(wctx, businessID, productID, serviceID)
	}()
}

// Wait blocks until every background write has finished.
func (r *Recorder) Wait() {
	r.wg.Wait()
}
