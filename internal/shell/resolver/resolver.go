// Package resolver turns the slug of a detail route into the entity it names.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/cache"
	"github.com/emprendecr/emprende/internal/shell/store"
)

// ErrNotFound is returned when a slug names no entity. Malformed slugs also
// satisfy errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("not found")

// Lookup is the part of the store the resolver reads.
type Lookup interface {
	GetEntity(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error)
	ListSlugCandidates(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, error)
}

// Service resolves slugs against a Lookup, caching candidate sets.
type Service struct {
	lookup Lookup
	cache  cache.Candidates
	codec  domain.Codec
	logger *slog.Logger
}

// New creates a resolver. A nil cache disables caching.
func New(lookup Lookup, c cache.Candidates, codec domain.Codec, logger *slog.Logger) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{lookup: lookup, cache: c, codec: codec, logger: logger}
}

// Resolve finds the entity of type t named by slug.
//
// The candidate set is scanned first by recomputing each slug from the
// current name. Failing that, the id is decoded from the slug itself, which
// also covers legacy slugs carrying the id in the middle. Only store failures
// other than a missing entity are returned as plain errors.
func (s *Service) Resolve(ctx context.Context, t domain.EntityType, slug string) (domain.Entity, error) {
	if !t.IsValid() {
		return nil, fmt.Errorf("resolve %q: %w", slug, domain.ErrInvalidEntityType)
	}

	candidates, err := s.candidates(ctx, t)
	if err != nil {
		return nil, err
	}

	if id, ok := s.codec.MatchSlug(candidates, slug); ok {
		e, err := s.get(ctx, t, id)
		if err == nil {
			return e, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		// Cached candidate outlived its entity.
		s.cache.Invalidate(ctx, t)
	}

	if id, ok := bareID(candidates, slug); ok {
		if e, err := s.get(ctx, t, id); err == nil || !errors.Is(err, ErrNotFound) {
			return e, err
		}
	}

	id, ok := s.codec.Decode(slug)
	if !ok {
		return nil, fmt.Errorf("%s %q: %w: %w", t, slug, ErrNotFound, domain.ErrMalformedSlug)
	}
	return s.get(ctx, t, id)
}

// ResolveBusiness resolves a business slug.
func (s *Service) ResolveBusiness(ctx context.Context, slug string) (*domain.Business, error) {
	return as[domain.Business](s.Resolve(ctx, domain.EntityBusiness, slug))
}

// ResolveProduct resolves a product slug.
func (s *Service) ResolveProduct(ctx context.Context, slug string) (*domain.Product, error) {
	return as[domain.Product](s.Resolve(ctx, domain.EntityProduct, slug))
}

// ResolveService resolves a service slug.
func (s *Service) ResolveService(ctx context.Context, slug string) (*domain.Service, error) {
	return as[domain.Service](s.Resolve(ctx, domain.EntityService, slug))
}

// Invalidate drops the cached candidate set of t. Writers call it after any
// create, rename, deactivation or delete.
func (s *Service) Invalidate(ctx context.Context, t domain.EntityType) {
	s.cache.Invalidate(ctx, t)
}

func (s *Service) candidates(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, error) {
	if c, ok := s.cache.Get(ctx, t); ok {
		return c, nil
	}
	c, err := s.lookup.ListSlugCandidates(ctx, t)
	if err != nil {
		s.logger.Error("failed to list slug candidates", "type", t, "error", err)
		return nil, fmt.Errorf("list %s candidates: %w", t, err)
	}
	s.cache.Set(ctx, t, c)
	return c, nil
}

func (s *Service) get(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error) {
	e, err := s.lookup.GetEntity(ctx, t, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%s %s: %w", t, id, ErrNotFound)
		}
		return nil, fmt.Errorf("get %s %s: %w", t, id, err)
	}
	return e, nil
}

func as[T any](e domain.Entity, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	v, ok := any(e).(*T)
	if !ok {
		return nil, fmt.Errorf("unexpected entity %T", e)
	}
	return v, nil
}

// bareID reports whether slug is exactly the id of a candidate. Ids that do
// not match the codec pattern rely on this to stay reachable.
func bareID(candidates []domain.SlugCandidate, slug string) (string, bool) {
	for _, c := range candidates {
		if c.ID == slug {
			return c.ID, true
		}
	}
	return "", false
}
