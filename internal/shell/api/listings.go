package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/core/listing"
	"github.com/go-chi/chi/v5"
)

// =============================================================================
// Query Parsing
// =============================================================================

// parseListQuery reads the facet and paging parameters of a listing route.
// Every active facet becomes one datastore parameter; a canton without a
// provincia is kept and applied literally.
func (h *Handler) parseListQuery(q url.Values) (domain.ListFilter, domain.Page, error) {
	p := listParams{
		CategoryIDs: values(q, "category_id"),
		Provincias:  values(q, "provincia"),
		Cantons:     values(q, "canton"),
		Search:      strings.TrimSpace(q.Get("search")),
		SortBy:      strings.ToLower(strings.TrimSpace(q.Get("sort_by"))),
		Page:        1,
		Limit:       h.cfg.PageSize,
	}

	var err error
	if p.MinPrice, err = floatParam(q, "min_price"); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}
	if p.MaxPrice, err = floatParam(q, "max_price"); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}
	if p.MinDuration, err = intParam(q, "min_duration"); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}
	if p.MaxDuration, err = intParam(q, "max_duration"); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}
	if v, err := intParam(q, "page"); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	} else if v != nil {
		p.Page = *v
	}
	if v, err := intParam(q, "limit"); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	} else if v != nil {
		p.Limit = *v
	}

	if err := validateStruct(p); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}

	sortBy, err := domain.ParseSortMode(p.SortBy)
	if err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}

	// WithProvincia clears the canton, so the canton is applied after it.
	f := domain.Filters{}.
		WithCategory(domain.Multi(p.CategoryIDs...)).
		WithProvincia(domain.Multi(p.Provincias...)).
		WithCanton(domain.Multi(p.Cantons...)).
		WithSearch(p.Search).
		WithPriceRange(p.MinPrice, p.MaxPrice).
		WithDurationRange(p.MinDuration, p.MaxDuration).
		WithSort(sortBy)
	if err := f.Validate(); err != nil {
		return domain.ListFilter{}, domain.Page{}, err
	}

	return listing.ToQuery(f), domain.Page{Number: p.Page, Size: p.Limit}, nil
}

// values returns every value of a repeatable parameter. Comma separated
// values are split as well so "provincia=A,B" equals "provincia=A&provincia=B".
func values(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func floatParam(q url.Values, key string) (*float64, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

func intParam(q url.Values, key string) (*int, error) {
	s := strings.TrimSpace(q.Get(key))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}

func listResponse[T any](items []T, page domain.Page) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{
		Items:   items,
		Page:    page.Number,
		Limit:   page.Size,
		HasMore: len(items) >= page.Size,
	}
}

// =============================================================================
// Listing Handlers
// =============================================================================

func (h *Handler) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	filter, page, err := h.parseListQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	businesses, err := h.store.ListBusinesses(r.Context(), filter, page)
	if err != nil {
		h.writeFailure(w, r, "list", "businesses", err)
		return
	}

	out := make([]BusinessResponse, 0, len(businesses))
	for i := range businesses {
		out = append(out, h.businessResponse(&businesses[i]))
	}
	h.writeJSON(w, http.StatusOK, listResponse(out, page))
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, page, err := h.parseListQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	h.listProducts(w, r, filter, page)
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	filter, page, err := h.parseListQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	h.listServices(w, r, filter, page)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, filter domain.ListFilter, page domain.Page) {
	products, err := h.store.ListProducts(r.Context(), filter, page)
	if err != nil {
		h.writeFailure(w, r, "list", "products", err)
		return
	}
	h.writeJSON(w, http.StatusOK, listResponse(h.productResponses(products), page))
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request, filter domain.ListFilter, page domain.Page) {
	services, err := h.store.ListServices(r.Context(), filter, page)
	if err != nil {
		h.writeFailure(w, r, "list", "services", err)
		return
	}
	h.writeJSON(w, http.StatusOK, listResponse(h.serviceResponses(services), page))
}

// =============================================================================
// Storefront Handlers
// =============================================================================

// storefront resolves the business of a storefront route and scopes the
// listing filter to it.
func (h *Handler) storefront(w http.ResponseWriter, r *http.Request) (*domain.Business, domain.ListFilter, domain.Page, bool) {
	filter, page, err := h.parseListQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return nil, filter, page, false
	}

	b, err := h.resolver.ResolveBusiness(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "business", err)
		return nil, filter, page, false
	}
	if !b.Active {
		h.writeError(w, http.StatusNotFound, "business not found", "business_not_found")
		return nil, filter, page, false
	}

	filter.BusinessID = b.ID
	return b, filter, page, true
}

func (h *Handler) handleBusinessProducts(w http.ResponseWriter, r *http.Request) {
	b, filter, page, ok := h.storefront(w, r)
	if !ok {
		return
	}
	products, err := h.store.ListProducts(r.Context(), filter, page)
	if err != nil {
		h.writeFailure(w, r, "list", "products", err)
		return
	}
	h.writeJSON(w, http.StatusOK, StorefrontResponse[ProductResponse]{
		Business:     h.businessResponse(b),
		ListResponse: listResponse(h.productResponses(products), page),
	})
}

func (h *Handler) handleBusinessServices(w http.ResponseWriter, r *http.Request) {
	b, filter, page, ok := h.storefront(w, r)
	if !ok {
		return
	}
	services, err := h.store.ListServices(r.Context(), filter, page)
	if err != nil {
		h.writeFailure(w, r, "list", "services", err)
		return
	}
	h.writeJSON(w, http.StatusOK, StorefrontResponse[ServiceResponse]{
		Business:     h.businessResponse(b),
		ListResponse: listResponse(h.serviceResponses(services), page),
	})
}
