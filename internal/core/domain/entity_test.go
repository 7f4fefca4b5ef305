package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBusiness_Success(t *testing.T) {
	b, err := NewBusiness("  Café Delicioso ")
	require.NoError(t, err)

	assert.Equal(t, "Café Delicioso", b.Name)
	assert.True(t, b.Active)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, "cafe-delicioso-"+b.ID, b.Slug())

	id, ok := defaultCodec.Decode(b.Slug())
	require.True(t, ok)
	assert.Equal(t, b.ID, id)
}

func TestNewBusiness_NameValidation(t *testing.T) {
	_, err := NewBusiness("   ")
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = NewBusiness(strings.Repeat("a", MaxNameLength+1))
	assert.ErrorIs(t, err, ErrNameTooLong)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct("", "Café", 10)
	assert.ErrorIs(t, err, ErrBusinessRequired)

	_, err = NewProduct("biz", "Café", -1)
	assert.ErrorIs(t, err, ErrPriceNegative)

	p, err := NewProduct("biz", "Café", 2500)
	require.NoError(t, err)
	assert.True(t, p.Available)
	assert.Equal(t, 2500.0, p.Price)
}

func TestNewService_Validation(t *testing.T) {
	_, err := NewService("biz", "Masaje", 10, -5)
	assert.ErrorIs(t, err, ErrDurationNegative)

	s, err := NewService("biz", "Masaje", 15000, 60)
	require.NoError(t, err)
	assert.Equal(t, 60, s.DurationMinutes)
	assert.Equal(t, "masaje-"+s.ID, s.Slug())
}

func TestEntityType(t *testing.T) {
	for _, in := range []string{"business", "Businesses"} {
		got, err := ParseEntityType(in)
		require.NoError(t, err)
		assert.Equal(t, EntityBusiness, got)
	}
	_, err := ParseEntityType("order")
	assert.ErrorIs(t, err, ErrInvalidEntityType)

	assert.Equal(t, "services", EntityService.Route())
	assert.False(t, EntityType("x").IsValid())
}
