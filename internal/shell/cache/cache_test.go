package cache

import (
	"context"
	"testing"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Candidates = (*Memory)(nil)
var _ Candidates = (*Redis)(nil)
var _ Candidates = Nop{}

func TestMemory_SetGetInvalidate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, ok := m.Get(ctx, domain.EntityProduct)
	assert.False(t, ok)

	in := []domain.SlugCandidate{{ID: "1", Name: "Café"}}
	m.Set(ctx, domain.EntityProduct, in)
	in[0].Name = "changed"

	got, ok := m.Get(ctx, domain.EntityProduct)
	require.True(t, ok)
	assert.Equal(t, "Café", got[0].Name)

	_, ok = m.Get(ctx, domain.EntityService)
	assert.False(t, ok)

	m.Invalidate(ctx, domain.EntityProduct)
	_, ok = m.Get(ctx, domain.EntityProduct)
	assert.False(t, ok)
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(time.Minute)
	m.now = func() time.Time { return now }

	m.Set(ctx, domain.EntityBusiness, []domain.SlugCandidate{{ID: "1", Name: "A"}})

	now = now.Add(59 * time.Second)
	_, ok := m.Get(ctx, domain.EntityBusiness)
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = m.Get(ctx, domain.EntityBusiness)
	assert.False(t, ok)
}

func TestMemory_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTTL, NewMemory(0).ttl)
}

func TestNop_NeverHits(t *testing.T) {
	ctx := context.Background()
	var n Nop
	n.Set(ctx, domain.EntityBusiness, []domain.SlugCandidate{{ID: "1"}})
	_, ok := n.Get(ctx, domain.EntityBusiness)
	assert.False(t, ok)
}

func TestNewRedis_InvalidURL(t *testing.T) {
	_, err := NewRedis(context.Background(), "://nope", time.Minute, nil)
	assert.Error(t, err)
}
