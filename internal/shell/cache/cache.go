// Package cache keeps slug candidate sets between resolutions so that a
// detail page does not rescan every entity name on each request.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
)

// DefaultTTL bounds how long a candidate set may be served after a write
// that skipped invalidation.
const DefaultTTL = 5 * time.Minute

// Candidates stores one candidate set per entity type.
type Candidates interface {
	Get(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, bool)
	Set(ctx context.Context, t domain.EntityType, candidates []domain.SlugCandidate)
	Invalidate(ctx context.Context, t domain.EntityType)
}

// =============================================================================
// Memory
// =============================================================================

type entry struct {
	candidates []domain.SlugCandidate
	fetchedAt  time.Time
}

// Memory is an in-process Candidates cache.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[domain.EntityType]entry
}

// NewMemory creates an in-process cache. A non-positive ttl uses DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[domain.EntityType]entry),
	}
}

func (m *Memory) Get(_ context.Context, t domain.EntityType) ([]domain.SlugCandidate, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[t]
	if !ok || m.now().Sub(e.fetchedAt) >= m.ttl {
		return nil, false
	}
	return e.candidates, true
}

func (m *Memory) Set(_ context.Context, t domain.EntityType, candidates []domain.SlugCandidate) {
	cp := make([]domain.SlugCandidate, len(candidates))
	copy(cp, candidates)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[t] = entry{candidates: cp, fetchedAt: m.now()}
}

func (m *Memory) Invalidate(_ context.Context, t domain.EntityType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, t)
}

// =============================================================================
// Nop
// =============================================================================

// Nop never caches. Every resolution reads the store.
type Nop struct{}

func (Nop) Get(context.Context, domain.EntityType) ([]domain.SlugCandidate, bool) { return nil, false }
func (Nop) Set(context.Context, domain.EntityType, []domain.SlugCandidate)        {}
func (Nop) Invalidate(context.Context, domain.EntityType)                          {}
