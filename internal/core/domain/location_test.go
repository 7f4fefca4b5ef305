package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvincias_SevenWithCantons(t *testing.T) {
	ps := Provincias()
	require.Len(t, ps, 7)

	total := 0
	for _, p := range ps {
		assert.NotEmpty(t, p.Cantons, p.Name)
		total += len(p.Cantons)
	}
	assert.Equal(t, 84, total)
}

func TestProvincias_ReturnsCopy(t *testing.T) {
	ps := Provincias()
	ps[0].Cantons[0] = "changed"
	assert.Equal(t, "San José", Provincias()[0].Cantons[0])
}

func TestLookupProvincia_IgnoresAccentsAndCase(t *testing.T) {
	p, ok := LookupProvincia("san jose")
	require.True(t, ok)
	assert.Equal(t, "San José", p.Name)

	_, ok = LookupProvincia("Atlantis")
	assert.False(t, ok)
}

func TestIsCantonOf(t *testing.T) {
	assert.True(t, IsCantonOf("San José", "Escazú"))
	assert.True(t, IsCantonOf("limon", "pococi"))
	assert.False(t, IsCantonOf("Heredia", "Escazú"))
	assert.Nil(t, CantonsOf("Atlantis"))
}

func TestLookupCanton_ReturnsCatalogSpelling(t *testing.T) {
	c, ok := LookupCanton("San José", "escazu")
	require.True(t, ok)
	assert.Equal(t, "Escazú", c)

	_, ok = LookupCanton("Heredia", "escazu")
	assert.False(t, ok)
}
