package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// FacetValue Tests
// =============================================================================

func TestFacetValue_Variants(t *testing.T) {
	assert.True(t, Absent().IsAbsent())
	assert.True(t, Scalar("").IsAbsent())
	assert.True(t, Multi().IsAbsent())
	assert.True(t, Multi(" ", "").IsAbsent())

	s := Scalar(" cat-1 ")
	assert.Equal(t, FacetScalar, s.Kind())
	assert.Equal(t, []string{"cat-1"}, s.Values())
	assert.Equal(t, "cat-1", s.First())

	m := Multi("a", "b", "a")
	assert.Equal(t, FacetMulti, m.Kind())
	assert.Equal(t, []string{"a", "b"}, m.Values())

	assert.Equal(t, FacetScalar, Multi("only").Kind())
	assert.Nil(t, Absent().Values())
	assert.Equal(t, "", Absent().First())
}

func TestFacetValue_ValuesIsCopy(t *testing.T) {
	m := Multi("a", "b")
	vs := m.Values()
	vs[0] = "changed"
	assert.Equal(t, "a", m.First())
}

func TestFacetValue_Equal(t *testing.T) {
	assert.True(t, Absent().Equal(FacetValue{}))
	assert.True(t, Scalar("x").Equal(Multi("x")))
	assert.False(t, Scalar("x").Equal(Scalar("y")))
	assert.False(t, Multi("a", "b").Equal(Multi("b", "a")))
}

// =============================================================================
// Canton Reset Tests
// =============================================================================

func TestWithProvincia_AlwaysClearsCanton(t *testing.T) {
	base := Filters{}.WithProvincia(Scalar("San José")).WithCanton(Scalar("Escazú"))
	require.Equal(t, "Escazú", base.Canton.First())

	transitions := []FacetValue{
		Scalar("Heredia"),
		Scalar("San José"),
		Absent(),
		Multi("Cartago", "Limón"),
	}
	for _, p := range transitions {
		next := base.WithProvincia(p)
		assert.True(t, next.Canton.IsAbsent(), "provincia %v", p.Values())
		assert.True(t, next.Provincia.Equal(p))
	}
}

func TestWithCanton_WithoutProvinciaIsKept(t *testing.T) {
	f := Filters{}.WithCanton(Scalar("Escazú"))
	assert.True(t, f.Provincia.IsAbsent())
	assert.Equal(t, "Escazú", f.Canton.First())
}

// =============================================================================
// Filters Tests
// =============================================================================

func TestFilters_MutatorsDoNotAlias(t *testing.T) {
	lo, hi := 1000.0, 5000.0
	a := Filters{}.WithPriceRange(&lo, &hi)
	lo = 9

	require.NotNil(t, a.MinPrice)
	assert.Equal(t, 1000.0, *a.MinPrice)

	b := a.WithSearch("  café ")
	assert.Equal(t, "café", b.Search)
	assert.Equal(t, "", a.Search)
}

func TestFilters_Equal(t *testing.T) {
	lo := 10.0
	a := Filters{}.WithCategory(Scalar("cat-1")).WithPriceRange(&lo, nil).WithSort(SortNewest)
	lo2 := 10.0
	b := Filters{}.WithCategory(Scalar("cat-1")).WithPriceRange(&lo2, nil).WithSort(SortNewest)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(b.WithSort(SortRandom)))
	assert.False(t, a.Equal(b.WithPriceRange(nil, nil)))
	assert.False(t, a.Equal(b.WithCategory(Scalar("cat-2"))))
}

func TestFilters_Validate(t *testing.T) {
	lo, hi, neg := 500.0, 100.0, -1.0
	negDur := -5

	assert.NoError(t, Filters{}.Validate())
	assert.ErrorIs(t, Filters{}.WithPriceRange(&lo, &hi).Validate(), ErrInvalidPriceRange)
	assert.ErrorIs(t, Filters{}.WithPriceRange(&neg, nil).Validate(), ErrPriceNegative)
	assert.ErrorIs(t, Filters{}.WithDurationRange(&negDur, nil).Validate(), ErrDurationNegative)
	assert.ErrorIs(t, Filters{SortBy: "cheapest"}.Validate(), ErrInvalidSortMode)
}

func TestParseSortMode(t *testing.T) {
	tests := []struct {
		in      string
		want    SortMode
		wantErr bool
	}{
		{"", SortDefault, false},
		{"random", SortRandom, false},
		{"Popularity", SortPopularity, false},
		{" newest ", SortNewest, false},
		{"price", SortDefault, true},
	}
	for _, tt := range tests {
		got, err := ParseSortMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidSortMode)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

// =============================================================================
// Page Tests
// =============================================================================

func TestPage_Normalize(t *testing.T) {
	assert.Equal(t, Page{Number: 1, Size: DefaultPageSize}, Page{}.Normalize())
	assert.Equal(t, Page{Number: 3, Size: MaxPageSize}, Page{Number: 3, Size: 1000}.Normalize())
	assert.Equal(t, 100, Page{Number: 3, Size: 50}.Offset())
	assert.Equal(t, 0, Page{Number: 0, Size: 50}.Offset())
}
