package listing

import (
	"strings"

	"github.com/emprendecr/emprende/internal/core/domain"
)

// =============================================================================
// Filter-to-query mapping
// =============================================================================

// ToQuery maps facet state to the datastore query. Each active facet maps to
// exactly one parameter. A canton without a provincia is passed through
// unchanged and applied literally by the datastore.
func ToQuery(f domain.Filters) domain.ListFilter {
	return domain.ListFilter{
		CategoryIDs: f.CategoryID.Values(),
		Search:      strings.TrimSpace(f.Search),
		Provincias:  f.Provincia.Values(),
		Cantons:     f.Canton.Values(),
		MinPrice:    f.MinPrice,
		MaxPrice:    f.MaxPrice,
		MinDuration: f.MinDuration,
		MaxDuration: f.MaxDuration,
		SortBy:      f.SortBy,
	}
}

// =============================================================================
// Content Type
// =============================================================================

// ContentType selects which item kinds a mixed listing shows.
type ContentType string

const (
	ContentAll      ContentType = "all"
	ContentProducts ContentType = "products"
	ContentServices ContentType = "services"
)

// ParseContentType parses a content type; unknown values mean all.
func ParseContentType(s string) ContentType {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentProducts:
		return ContentProducts
	case ContentServices:
		return ContentServices
	default:
		return ContentAll
	}
}

// Includes reports whether a sub-listing of type t is relevant.
func (c ContentType) Includes(t domain.EntityType) bool {
	switch c {
	case ContentProducts:
		return t == domain.EntityProduct
	case ContentServices:
		return t == domain.EntityService
	default:
		return t == domain.EntityProduct || t == domain.EntityService
	}
}

// =============================================================================
// Display filtering
// =============================================================================

// FilterBusinesses narrows already fetched businesses to those whose name or
// description contains text, ignoring case and accents. It never replaces a
// refetch: the server-side search facet stays the source of truth and this
// only shapes what is displayed.
func FilterBusinesses(list []domain.Business, text string) []domain.Business {
	needle := fold(text)
	out := make([]domain.Business, 0, len(list))
	for _, b := range list {
		if needle == "" || strings.Contains(fold(b.Name), needle) || strings.Contains(fold(b.Description), needle) {
			out = append(out, b)
		}
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(domain.FoldAccents(s)))
}
