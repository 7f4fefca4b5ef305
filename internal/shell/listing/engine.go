// Package listing runs paginated marketplace listings against a page source:
// it owns the accumulated items, the page cursor and the in-flight fetch of
// one mounted view.
package listing

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/core/listing"
)

// ErrStale is returned by Load and LoadMore when a newer filter session
// started while the fetch was in flight. The response was discarded.
var ErrStale = errors.New("listing: response superseded by newer filters")

// Fetcher loads one page of items.
type Fetcher[T any] func(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]T, error)

// Snapshot is a consistent view of a listing. Items is never mutated after
// the snapshot is taken.
type Snapshot[T any] struct {
	State      listing.State
	Items      []T
	Filters    domain.Filters
	Cursor     listing.Cursor
	Generation uint64
	Err        error
}

// HasMore reports whether a scroll trigger would fetch another page.
func (s Snapshot[T]) HasMore() bool {
	return s.State == listing.StateReady && s.Cursor.HasMore
}

// Listing is the query engine of one listing. It is safe for concurrent use.
type Listing[T any] struct {
	name     string
	fetch    Fetcher[T]
	pageSize int
	logger   *slog.Logger

	mu       sync.Mutex
	state    listing.State
	items    []T
	filters  domain.Filters
	cursor   listing.Cursor
	gen      uint64
	inFlight bool
	cancel   context.CancelFunc
	err      error
}

// Option configures a Listing.
type Option func(*options)

type options struct {
	pageSize int
	logger   *slog.Logger
}

// WithPageSize sets the page size. Non-positive values keep the default.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an idle listing. name only appears in logs.
func New[T any](name string, fetch Fetcher[T], opts ...Option) *Listing[T] {
	o := options{pageSize: domain.DefaultPageSize, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return &Listing[T]{
		name:     name,
		fetch:    fetch,
		pageSize: o.pageSize,
		logger:   o.logger.With("listing", name),
		state:    listing.StateIdle,
		cursor:   listing.NewCursor(o.pageSize),
	}
}

// Load starts a new filter session: the accumulated items are dropped, the
// cursor goes back to page 1 and the first page is fetched. A fetch still in
// flight from an earlier session is cancelled and its response discarded.
//
// On failure the listing is left Idle with no items and Err set.
func (l *Listing[T]) Load(ctx context.Context, filters domain.Filters) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	l.transition(listing.StateLoading)
	l.items = nil
	l.filters = filters
	l.cursor = listing.NewCursor(l.pageSize)
	l.err = nil
	l.inFlight = true
	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	page := l.cursor.First()
	query := listing.ToQuery(filters)
	fetch := l.fetch
	l.mu.Unlock()

	items, err := fetch(fctx, query, page)
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return ErrStale
	}
	l.inFlight = false
	l.cancel = nil

	if err != nil {
		l.logger.Error("failed to load listing", "page", page.Number, "generation", gen, "error", err)
		l.transition(listing.StateIdle)
		l.err = err
		return err
	}

	l.items = listing.Append(nil, items)
	l.cursor = l.cursor.Loaded(len(items))
	l.transition(l.cursor.Settled())
	return nil
}

// LoadMore fetches the page after the last loaded one. It reports false
// without fetching unless the listing is Ready with more results and nothing
// in flight, so overlapping scroll triggers cause exactly one fetch.
//
// On failure the accumulated items and the cursor are kept and the listing
// returns to Ready, so the next trigger retries the same page.
func (l *Listing[T]) LoadMore(ctx context.Context) (bool, error) {
	l.mu.Lock()
	if l.inFlight || l.state != listing.StateReady || !l.cursor.HasMore {
		l.mu.Unlock()
		return false, nil
	}
	gen := l.gen
	l.transition(listing.StateLoadingMore)
	l.inFlight = true
	l.err = nil
	fctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	page := l.cursor.Next()
	query := listing.ToQuery(l.filters)
	fetch := l.fetch
	l.mu.Unlock()

	items, err := fetch(fctx, query, page)
	cancel()

	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return true, ErrStale
	}
	l.inFlight = false
	l.cancel = nil

	if err != nil {
		l.logger.Warn("failed to load more", "page", page.Number, "generation", gen, "error", err)
		l.transition(listing.StateReady)
		l.err = err
		return true, err
	}

	l.items = listing.Append(l.items, items)
	l.cursor = l.cursor.Advance(len(items))
	l.transition(l.cursor.Settled())
	return true, nil
}

// transition moves to state to when the state machine allows it. The caller
// holds l.mu.
func (l *Listing[T]) transition(to listing.State) bool {
	if !listing.CanTransition(l.state, to) {
		l.logger.Error("invalid listing transition", "from", l.state.String(), "to", to.String())
		return false
	}
	l.state = to
	return true
}

// SetFilters starts a new session when filters differ from the current ones
// or nothing has been loaded yet. It reports whether a fetch happened.
func (l *Listing[T]) SetFilters(ctx context.Context, filters domain.Filters) (bool, error) {
	l.mu.Lock()
	same := l.filters.Equal(filters) && l.state != listing.StateIdle
	l.mu.Unlock()
	if same {
		return false, nil
	}
	return true, l.Load(ctx, filters)
}

// Update applies mutate to the current filters and reloads.
func (l *Listing[T]) Update(ctx context.Context, mutate func(domain.Filters) domain.Filters) error {
	_, err := l.SetFilters(ctx, mutate(l.Filters()))
	return err
}

// Filters returns the filters of the current session.
func (l *Listing[T]) Filters() domain.Filters {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filters
}

// Snapshot returns the current state.
func (l *Listing[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Snapshot[T]{
		State:      l.state,
		Items:      l.items,
		Filters:    l.filters,
		Cursor:     l.cursor,
		Generation: l.gen,
		Err:        l.err,
	}
}
