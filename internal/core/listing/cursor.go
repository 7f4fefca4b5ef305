// Package listing provides the pure parts of paginated marketplace listings:
// page cursors, listing states, filter-to-query mapping and result merging.
// This is part of the Functional Core - all functions are pure with no I/O.
package listing

import (
	"github.com/emprendecr/emprende/internal/core/domain"
)

// =============================================================================
// State
// =============================================================================

// State is the lifecycle position of one listing.
type State int

const (
	// StateIdle means nothing is loaded and nothing is in flight.
	StateIdle State = iota
	// StateLoading means the first page of a filter session is in flight.
	StateLoading
	// StateReady means at least one page is loaded and more may exist.
	StateReady
	// StateLoadingMore means a continuation page is in flight.
	StateLoadingMore
	// StateExhausted means the last page came back short.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateLoadingMore:
		return "loading_more"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Busy reports whether a fetch is in flight.
func (s State) Busy() bool {
	return s == StateLoading || s == StateLoadingMore
}

// CanTransition reports whether a listing may move from one state to another.
// Loading is reachable from every state because a filter change always wins.
func CanTransition(from, to State) bool {
	if to == StateLoading {
		return true
	}
	switch from {
	case StateLoading:
		return to == StateReady || to == StateExhausted || to == StateIdle
	case StateReady:
		return to == StateLoadingMore
	case StateLoadingMore:
		return to == StateReady || to == StateExhausted
	default:
		return false
	}
}

// =============================================================================
// Cursor
// =============================================================================

// Cursor tracks the last loaded page of a filter session.
type Cursor struct {
	Page     int
	PageSize int
	HasMore  bool
}

// NewCursor starts a filter session at page 1 with more results assumed.
func NewCursor(pageSize int) Cursor {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return Cursor{Page: 1, PageSize: pageSize, HasMore: true}
}

// First is the request for the first page of the session.
func (c Cursor) First() domain.Page {
	return domain.Page{Number: 1, Size: c.PageSize}
}

// Next is the request for the page after the last loaded one.
func (c Cursor) Next() domain.Page {
	return domain.Page{Number: c.Page + 1, Size: c.PageSize}
}

// Loaded records the first page: the cursor stays on page 1.
func (c Cursor) Loaded(n int) Cursor {
	c.Page = 1
	c.HasMore = n >= c.PageSize
	return c
}

// Advance records a continuation page of n items.
func (c Cursor) Advance(n int) Cursor {
	c.Page++
	c.HasMore = n >= c.PageSize
	return c
}

// Settled is the state a listing rests in once its last fetch succeeded.
func (c Cursor) Settled() State {
	if c.HasMore {
		return StateReady
	}
	return StateExhausted
}

// =============================================================================
// Merging
// =============================================================================

// Append returns a new slice holding acc followed by page. acc is left
// untouched so earlier snapshots stay valid.
func Append[T any](acc, page []T) []T {
	out := make([]T, 0, len(acc)+len(page))
	out = append(out, acc...)
	return append(out, page...)
}
