package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/go-chi/chi/v5"
)

var errInvalidCanton = errors.New("canton does not belong to provincia")

// =============================================================================
// Links
// =============================================================================

func (h *Handler) links(t domain.EntityType, name, id, whatsapp string) Links {
	l := Links{
		Slug: h.cfg.Codec.Encode(name, id),
		Path: h.cfg.Codec.DetailPath(t, name, id),
	}
	if h.cfg.BaseURL != "" {
		l.URL = h.cfg.BaseURL + l.Path
	}
	if whatsapp != "" {
		if u, err := domain.WhatsAppURL(whatsapp, h.cfg.CountryCode, h.contactMessage(name)); err == nil {
			l.WhatsAppURL = u
		}
	}
	return l
}

func (h *Handler) contactMessage(name string) string {
	if h.cfg.ContactMessage == "" {
		return domain.ContactMessage(name)
	}
	return strings.ReplaceAll(h.cfg.ContactMessage, "{name}", name)
}

func (h *Handler) businessResponse(b *domain.Business) BusinessResponse {
	return BusinessResponse{
		Business: *b,
		Links:    h.links(domain.EntityBusiness, b.Name, b.ID, b.WhatsApp),
	}
}

func (h *Handler) productResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		Product: *p,
		Links:   h.links(domain.EntityProduct, p.Name, p.ID, p.WhatsApp),
	}
}

func (h *Handler) serviceResponse(s *domain.Service) ServiceResponse {
	return ServiceResponse{
		Service: *s,
		Links:   h.links(domain.EntityService, s.Name, s.ID, s.WhatsApp),
	}
}

func (h *Handler) productResponses(products []domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, h.productResponse(&products[i]))
	}
	return out
}

func (h *Handler) serviceResponses(services []domain.Service) []ServiceResponse {
	out := make([]ServiceResponse, 0, len(services))
	for i := range services {
		out = append(out, h.serviceResponse(&services[i]))
	}
	return out
}

// invalidate drops cached slug candidates after a write. Removing a business
// cascades to its items.
func (h *Handler) invalidate(ctx context.Context, types ...domain.EntityType) {
	for _, t := range types {
		h.resolver.Invalidate(ctx, t)
	}
}

// =============================================================================
// Business Handlers
// =============================================================================

func (h *Handler) handleGetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.resolver.ResolveBusiness(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "business", err)
		return
	}
	if !b.Active {
		h.writeError(w, http.StatusNotFound, "business not found", "business_not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, h.businessResponse(b))
}

func (h *Handler) handleCreateBusiness(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[BusinessRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	b, err := domain.NewBusiness(req.Name)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if err := applyBusiness(b, req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	if err := h.store.CreateBusiness(r.Context(), b); err != nil {
		h.writeFailure(w, r, "create", "business", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityBusiness)

	h.logger.Info("business created", "business_id", b.ID, "slug", b.Slug())
	h.writeJSON(w, http.StatusCreated, h.businessResponse(b))
}

func (h *Handler) handleUpdateBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.resolver.ResolveBusiness(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "business", err)
		return
	}

	req, err := decodeJSON[BusinessRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	b.Name = strings.TrimSpace(req.Name)
	if err := applyBusiness(b, req); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	b.UpdatedAt = time.Now()

	if err := h.store.UpdateBusiness(r.Context(), b); err != nil {
		h.writeFailure(w, r, "update", "business", err)
		return
	}
	// Owner fields of items are joined from the business.
	h.invalidate(r.Context(), domain.EntityBusiness, domain.EntityProduct, domain.EntityService)

	h.writeJSON(w, http.StatusOK, h.businessResponse(b))
}

func (h *Handler) handleDeleteBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.resolver.ResolveBusiness(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "business", err)
		return
	}
	if err := h.store.DeleteBusiness(r.Context(), b.ID); err != nil {
		h.writeFailure(w, r, "delete", "business", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityBusiness, domain.EntityProduct, domain.EntityService)

	h.logger.Info("business deleted", "business_id", b.ID)
	h.writeJSON(w, http.StatusNoContent, nil)
}

// applyBusiness copies the optional fields of req onto b.
func applyBusiness(b *domain.Business, req BusinessRequest) error {
	provincia := strings.TrimSpace(req.Provincia)
	if p, ok := domain.LookupProvincia(provincia); ok {
		provincia = p.Name
	}
	canton := strings.TrimSpace(req.Canton)
	if canton != "" {
		c, ok := domain.LookupCanton(provincia, canton)
		if !ok {
			return errInvalidCanton
		}
		canton = c
	}

	b.Description = strings.TrimSpace(req.Description)
	b.CategoryID = strings.TrimSpace(req.CategoryID)
	b.Provincia = provincia
	b.Canton = canton
	b.WhatsApp = strings.TrimSpace(req.WhatsApp)
	b.Email = strings.TrimSpace(req.Email)
	b.Website = strings.TrimSpace(req.Website)
	b.LogoURL = strings.TrimSpace(req.LogoURL)
	if req.Active != nil {
		b.Active = *req.Active
	}
	return nil
}

// =============================================================================
// Product Handlers
// =============================================================================

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "product", err)
		return
	}
	if !p.Visible() {
		h.writeError(w, http.StatusNotFound, "product not found", "product_not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, h.productResponse(p))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[ProductRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	p, err := domain.NewProduct(strings.TrimSpace(req.BusinessID), req.Name, req.Price)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	applyProduct(p, req)

	if err := h.store.CreateProduct(r.Context(), p); err != nil {
		h.writeFailure(w, r, "create", "product", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityProduct)

	// Reload to pick up the owner fields joined from the business.
	if stored, err := h.store.GetProduct(r.Context(), p.ID); err == nil {
		p = stored
	}
	h.logger.Info("product created", "product_id", p.ID, "business_id", p.BusinessID)
	h.writeJSON(w, http.StatusCreated, h.productResponse(p))
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "product", err)
		return
	}

	req, err := decodeJSON[ProductRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if id := strings.TrimSpace(req.BusinessID); id != "" {
		p.BusinessID = id
	}
	p.Name = strings.TrimSpace(req.Name)
	p.Price = req.Price
	applyProduct(p, req)
	p.UpdatedAt = time.Now()

	if err := h.store.UpdateProduct(r.Context(), p); err != nil {
		h.writeFailure(w, r, "update", "product", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityProduct)

	if stored, err := h.store.GetProduct(r.Context(), p.ID); err == nil {
		p = stored
	}
	h.writeJSON(w, http.StatusOK, h.productResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.resolver.ResolveProduct(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "product", err)
		return
	}
	if err := h.store.DeleteProduct(r.Context(), p.ID); err != nil {
		h.writeFailure(w, r, "delete", "product", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityProduct)
	h.writeJSON(w, http.StatusNoContent, nil)
}

func applyProduct(p *domain.Product, req ProductRequest) {
	p.Description = strings.TrimSpace(req.Description)
	p.CategoryID = strings.TrimSpace(req.CategoryID)
	p.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Available != nil {
		p.Available = *req.Available
	}
}

// =============================================================================
// Service Handlers
// =============================================================================

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	s, err := h.resolver.ResolveService(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "service", err)
		return
	}
	if !s.Visible() {
		h.writeError(w, http.StatusNotFound, "service not found", "service_not_found")
		return
	}
	h.writeJSON(w, http.StatusOK, h.serviceResponse(s))
}

func (h *Handler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[ServiceRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	s, err := domain.NewService(strings.TrimSpace(req.BusinessID), req.Name, req.Price, req.DurationMinutes)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	applyService(s, req)

	if err := h.store.CreateService(r.Context(), s); err != nil {
		h.writeFailure(w, r, "create", "service", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityService)

	if stored, err := h.store.GetService(r.Context(), s.ID); err == nil {
		s = stored
	}
	h.logger.Info("service created", "service_id", s.ID, "business_id", s.BusinessID)
	h.writeJSON(w, http.StatusCreated, h.serviceResponse(s))
}

func (h *Handler) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	s, err := h.resolver.ResolveService(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "service", err)
		return
	}

	req, err := decodeJSON[ServiceRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}
	if id := strings.TrimSpace(req.BusinessID); id != "" {
		s.BusinessID = id
	}
	s.Name = strings.TrimSpace(req.Name)
	s.Price = req.Price
	s.DurationMinutes = req.DurationMinutes
	applyService(s, req)
	s.UpdatedAt = time.Now()

	if err := h.store.UpdateService(r.Context(), s); err != nil {
		h.writeFailure(w, r, "update", "service", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityService)

	if stored, err := h.store.GetService(r.Context(), s.ID); err == nil {
		s = stored
	}
	h.writeJSON(w, http.StatusOK, h.serviceResponse(s))
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	s, err := h.resolver.ResolveService(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.writeFailure(w, r, "get", "service", err)
		return
	}
	if err := h.store.DeleteService(r.Context(), s.ID); err != nil {
		h.writeFailure(w, r, "delete", "service", err)
		return
	}
	h.invalidate(r.Context(), domain.EntityService)
	h.writeJSON(w, http.StatusNoContent, nil)
}

func applyService(s *domain.Service, req ServiceRequest) {
	s.Description = strings.TrimSpace(req.Description)
	s.CategoryID = strings.TrimSpace(req.CategoryID)
	s.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Available != nil {
		s.Available = *req.Available
	}
}
