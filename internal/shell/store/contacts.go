package store

import (
	"context"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/jmoiron/sqlx"
)

// =============================================================================
// Contact Events
// =============================================================================

type contactEventRow struct {
	ID          string  `db:"id"`
	BusinessID  string  `db:"business_id"`
	ProductID   *string `db:"product_id"`
	ServiceID   *string `db:"service_id"`
	CreatedAt   string  `db:"created_at"`
	ProcessedAt *string `db:"processed_at"`
}

const defaultContactBatch = 100

func recordContactEvent(ctx context.Context, exec executor, e *domain.ContactEvent) error {
	query := `
		INSERT INTO contact_events (id, business_id, product_id, service_id, created_at)
		VALUES (:id, :business_id, :product_id, :service_id, :created_at)`

	row := contactEventRow{
		ID:         e.ID,
		BusinessID: e.BusinessID,
		ProductID:  nullable(e.ProductID),
		ServiceID:  nullable(e.ServiceID),
		CreatedAt:  formatTime(e.CreatedAt),
	}
	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return constraintError("RecordContactEvent", "contact_event", e.ID, err)
	}
	return nil
}

func listUnprocessedContactEvents(ctx context.Context, exec executor, limit int) ([]domain.ContactEvent, error) {
	if limit <= 0 {
		limit = defaultContactBatch
	}
	query := `
		SELECT * FROM contact_events
		WHERE processed_at IS NULL
		ORDER BY created_at ASC
		LIMIT ?`

	var rows []contactEventRow
	if err := exec.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, NewStoreError("ListUnprocessedContactEvents", "contact_event", "", err.Error(), err)
	}

	events := make([]domain.ContactEvent, 0, len(rows))
	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, NewStoreError("ListUnprocessedContactEvents", "contact_event", r.ID, "invalid created_at", ErrInvalidData)
		}
		events = append(events, domain.ContactEvent{
			ID:         r.ID,
			BusinessID: r.BusinessID,
			ProductID:  deref(r.ProductID),
			ServiceID:  deref(r.ServiceID),
			CreatedAt:  created,
		})
	}
	return events, nil
}

// applyContactEvents folds events into the contact_count columns and marks
// them processed. Callers run it inside WithTx so counters and markers move
// together.
func applyContactEvents(ctx context.Context, exec executor, events []domain.ContactEvent, processedAt time.Time) error {
	if len(events) == 0 {
		return nil
	}

	totals := domain.TallyContacts(events)
	counters := []struct {
		table string
		incs  map[string]int64
	}{
		{"businesses", totals.Businesses},
		{"products", totals.Products},
		{"services", totals.Services},
	}
	for _, c := range counters {
		for id, n := range c.incs {
			query := `UPDATE ` + c.table + ` SET contact_count = contact_count + ? WHERE id = ?`
			if _, err := exec.ExecContext(ctx, query, n, id); err != nil {
				return NewStoreError("ApplyContactEvents", c.table, id, err.Error(), err)
			}
		}
	}

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	query, args, err := sqlx.In(`UPDATE contact_events SET processed_at = ? WHERE id IN (?)`, formatTime(processedAt), ids)
	if err != nil {
		return NewStoreError("ApplyContactEvents", "contact_event", "", err.Error(), ErrInvalidData)
	}
	if _, err := exec.ExecContext(ctx, exec.Rebind(query), args...); err != nil {
		return NewStoreError("ApplyContactEvents", "contact_event", "", err.Error(), err)
	}
	return nil
}
