package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/core/listing"
	"golang.org/x/sync/errgroup"
)

// Mixed shows products and services side by side. Each sub-listing keeps its
// own cursor; only the sub-listings selected by the content type are fetched.
type Mixed struct {
	Products *Listing[domain.Product]
	Services *Listing[domain.Service]

	mu      sync.Mutex
	content listing.ContentType
}

// MixedSnapshot is a consistent view of both sub-listings.
type MixedSnapshot struct {
	Content  listing.ContentType
	Products Snapshot[domain.Product]
	Services Snapshot[domain.Service]
	HasMore  bool
}

// NewMixed creates a mixed listing showing everything.
func NewMixed(products Fetcher[domain.Product], services Fetcher[domain.Service], opts ...Option) *Mixed {
	return &Mixed{
		Products: New("products", products, opts...),
		Services: New("services", services, opts...),
		content:  listing.ContentAll,
	}
}

// Load starts a new filter session on every relevant sub-listing
// concurrently. The errors of both fetches are joined once they settle.
func (m *Mixed) Load(ctx context.Context, filters domain.Filters, content listing.ContentType) error {
	m.mu.Lock()
	m.content = content
	m.mu.Unlock()

	var (
		g          errgroup.Group
		pErr, sErr error
	)
	if content.Includes(domain.EntityProduct) {
		g.Go(func() error {
			pErr = m.Products.Load(ctx, filters)
			return nil
		})
	}
	if content.Includes(domain.EntityService) {
		g.Go(func() error {
			sErr = m.Services.Load(ctx, filters)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(pErr, sErr)
}

// LoadMore continues every relevant sub-listing that still has results. It
// reports whether any fetch was started.
func (m *Mixed) LoadMore(ctx context.Context) (bool, error) {
	content := m.Content()
	var (
		g                  errgroup.Group
		pStarted, sStarted bool
		pErr, sErr         error
	)
	if content.Includes(domain.EntityProduct) {
		g.Go(func() error {
			pStarted, pErr = m.Products.LoadMore(ctx)
			return nil
		})
	}
	if content.Includes(domain.EntityService) {
		g.Go(func() error {
			sStarted, sErr = m.Services.LoadMore(ctx)
			return nil
		})
	}
	_ = g.Wait()
	return pStarted || sStarted, errors.Join(dropStale(pErr), dropStale(sErr))
}

// dropStale hides ErrStale: a superseded page is not a failure of the
// session that replaced it.
func dropStale(err error) error {
	if errors.Is(err, ErrStale) {
		return nil
	}
	return err
}

// Content returns the content type of the current session.
func (m *Mixed) Content() listing.ContentType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

// HasMore is the logical OR of the relevant sub-listings.
func (m *Mixed) HasMore() bool {
	return m.Snapshot().HasMore
}

// Snapshot returns the state of both sub-listings.
func (m *Mixed) Snapshot() MixedSnapshot {
	s := MixedSnapshot{
		Content:  m.Content(),
		Products: m.Products.Snapshot(),
		Services: m.Services.Snapshot(),
	}
	s.HasMore = (s.Content.Includes(domain.EntityProduct) && moreExpected(s.Products)) ||
		(s.Content.Includes(domain.EntityService) && moreExpected(s.Services))
	return s
}

// moreExpected is true once a session started and its last page was full,
// including while the next page is in flight.
func moreExpected[T any](s Snapshot[T]) bool {
	return s.State != listing.StateIdle && s.Cursor.HasMore
}
