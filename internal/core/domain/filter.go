package domain

import (
	"errors"
	"slices"
	"strings"
)

// =============================================================================
// Filter Errors
// =============================================================================

var (
	ErrInvalidSortMode   = errors.New("sort_by must be one of random, popularity, newest")
	ErrInvalidPriceRange = errors.New("min_price cannot be greater than max_price")
)

// =============================================================================
// Facet Value
// =============================================================================

// FacetKind tags the variant held by a FacetValue.
type FacetKind int

const (
	FacetAbsent FacetKind = iota
	FacetScalar
	FacetMulti
)

// FacetValue is the value of a single filter dimension: absent, one string,
// or a set of strings. The zero value is Absent.
type FacetValue struct {
	kind   FacetKind
	values []string
}

// Absent returns an inactive facet.
func Absent() FacetValue { return FacetValue{} }

// Scalar returns a single-valued facet. An empty string is Absent.
func Scalar(v string) FacetValue {
	v = strings.TrimSpace(v)
	if v == "" {
		return Absent()
	}
	return FacetValue{kind: FacetScalar, values: []string{v}}
}

// Multi returns a multi-valued facet. Blank entries are dropped; zero
// remaining values is Absent and exactly one is Scalar.
func Multi(vs ...string) FacetValue {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.TrimSpace(v); v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	switch len(out) {
	case 0:
		return Absent()
	case 1:
		return FacetValue{kind: FacetScalar, values: out}
	default:
		return FacetValue{kind: FacetMulti, values: out}
	}
}

// Kind reports which variant v holds.
func (v FacetValue) Kind() FacetKind { return v.kind }

// IsAbsent reports whether the facet is inactive.
func (v FacetValue) IsAbsent() bool { return v.kind == FacetAbsent }

// Values returns a copy of the selected values; nil when absent.
func (v FacetValue) Values() []string {
	if v.kind == FacetAbsent {
		return nil
	}
	return slices.Clone(v.values)
}

// First returns the first selected value, or "" when absent.
func (v FacetValue) First() string {
	if v.kind == FacetAbsent {
		return ""
	}
	return v.values[0]
}

// Equal reports whether both facets select the same values in the same order.
func (v FacetValue) Equal(o FacetValue) bool {
	return v.kind == o.kind && slices.Equal(v.values, o.values)
}

// =============================================================================
// Sort Mode
// =============================================================================

// SortMode selects the listing order. The empty mode leaves ordering to the
// datastore.
type SortMode string

const (
	SortDefault    SortMode = ""
	SortRandom     SortMode = "random"
	SortPopularity SortMode = "popularity"
	SortNewest     SortMode = "newest"
)

// IsValid checks if the sort mode is known.
func (m SortMode) IsValid() bool {
	switch m {
	case SortDefault, SortRandom, SortPopularity, SortNewest:
		return true
	default:
		return false
	}
}

// ParseSortMode parses a sort_by parameter.
func ParseSortMode(s string) (SortMode, error) {
	m := SortMode(strings.ToLower(strings.TrimSpace(s)))
	if !m.IsValid() {
		return SortDefault, ErrInvalidSortMode
	}
	return m, nil
}

// =============================================================================
// Filters
// =============================================================================

// Filters is the facet state of one listing view. Values are immutable; every
// mutator returns a new Filters.
type Filters struct {
	CategoryID  FacetValue
	Search      string
	Provincia   FacetValue
	Canton      FacetValue
	MinPrice    *float64
	MaxPrice    *float64
	MinDuration *int
	MaxDuration *int
	SortBy      SortMode
}

// WithCategory sets the category facet.
func (f Filters) WithCategory(v FacetValue) Filters {
	f.CategoryID = v
	return f
}

// WithSearch sets the free-text facet.
func (f Filters) WithSearch(q string) Filters {
	f.Search = strings.TrimSpace(q)
	return f
}

// WithProvincia sets the provincia facet and always clears the canton,
// since a canton only makes sense inside the provincia it was picked from.
func (f Filters) WithProvincia(v FacetValue) Filters {
	f.Provincia = v
	f.Canton = Absent()
	return f
}

// WithCanton sets the canton facet.
func (f Filters) WithCanton(v FacetValue) Filters {
	f.Canton = v
	return f
}

// WithPriceRange sets both price bounds; nil clears a bound.
func (f Filters) WithPriceRange(lo, hi *float64) Filters {
	f.MinPrice = clonePtr(lo)
	f.MaxPrice = clonePtr(hi)
	return f
}

// WithDurationRange sets both duration bounds in minutes; nil clears a bound.
func (f Filters) WithDurationRange(lo, hi *int) Filters {
	f.MinDuration = clonePtr(lo)
	f.MaxDuration = clonePtr(hi)
	return f
}

// WithSort sets the sort mode.
func (f Filters) WithSort(m SortMode) Filters {
	f.SortBy = m
	return f
}

// Equal reports whether two filter states select the same results.
func (f Filters) Equal(o Filters) bool {
	return f.CategoryID.Equal(o.CategoryID) &&
		f.Search == o.Search &&
		f.Provincia.Equal(o.Provincia) &&
		f.Canton.Equal(o.Canton) &&
		ptrEqual(f.MinPrice, o.MinPrice) &&
		ptrEqual(f.MaxPrice, o.MaxPrice) &&
		ptrEqual(f.MinDuration, o.MinDuration) &&
		ptrEqual(f.MaxDuration, o.MaxDuration) &&
		f.SortBy == o.SortBy
}

// Validate checks sort mode and range ordering.
func (f Filters) Validate() error {
	if !f.SortBy.IsValid() {
		return ErrInvalidSortMode
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return ErrInvalidPriceRange
	}
	if (f.MinPrice != nil && *f.MinPrice < 0) || (f.MaxPrice != nil && *f.MaxPrice < 0) {
		return ErrPriceNegative
	}
	if (f.MinDuration != nil && *f.MinDuration < 0) || (f.MaxDuration != nil && *f.MaxDuration < 0) {
		return ErrDurationNegative
	}
	return nil
}

// =============================================================================
// Query Parameters
// =============================================================================

// ListFilter is the flattened query handed to the data access layer. Empty
// slices and nil pointers mean "not filtered".
type ListFilter struct {
	CategoryIDs []string
	Search      string
	Provincias  []string
	Cantons     []string
	BusinessID  string
	MinPrice    *float64
	MaxPrice    *float64
	MinDuration *int
	MaxDuration *int
	SortBy      SortMode
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// DefaultPageSize is the number of items fetched per listing page.
const DefaultPageSize = 50

// MaxPageSize bounds a single page request.
const MaxPageSize = 100

// Normalize ensures page values are usable.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of rows skipped before this page.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
