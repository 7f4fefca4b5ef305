package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/google/uuid"
)

// =============================================================================
// Category Handlers
// =============================================================================

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.writeFailure(w, r, "list", "categories", err)
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	h.writeJSON(w, http.StatusOK, CategoriesResponse{Categories: categories})
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[CategoryRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	c := &domain.Category{
		ID:          strings.TrimSpace(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   time.Now(),
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	if err := h.store.CreateCategory(r.Context(), c); err != nil {
		h.writeFailure(w, r, "create", "category", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, c)
}

// =============================================================================
// Location Handlers
// =============================================================================

func (h *Handler) handleListLocations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, LocationsResponse{Provincias: domain.Provincias()})
}

// =============================================================================
// Contact Event Handlers
// =============================================================================

// handleContactEvent accepts the event and records it in the background.
// The visitor is already on the way to WhatsApp, so storage failures are
// only logged.
func (h *Handler) handleContactEvent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[ContactEventRequest](r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
		return
	}

	h.recorder.Go(r.Context(),
		strings.TrimSpace(req.BusinessID),
		strings.TrimSpace(req.ProductID),
		strings.TrimSpace(req.ServiceID),
	)
	h.writeJSON(w, http.StatusAccepted, ContactEventResponse{Status: "accepted"})
}
