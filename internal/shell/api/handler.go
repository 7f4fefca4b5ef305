// Package api provides HTTP handlers for the marketplace API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/emprendecr/emprende/internal/shell/analytics"
	"github.com/emprendecr/emprende/internal/shell/api/openapi"
	"github.com/emprendecr/emprende/internal/shell/resolver"
	"github.com/emprendecr/emprende/internal/shell/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// =============================================================================
// Handler
// =============================================================================

// Config holds the presentation settings of the API.
type Config struct {
	// BaseURL is prefixed to detail paths to build absolute links.
	BaseURL string
	// CountryCode is prepended to local WhatsApp numbers.
	CountryCode string
	// ContactMessage is the prefilled chat text. "{name}" is replaced with
	// the item name; empty uses the default message.
	ContactMessage string
	// PageSize is the default listing limit.
	PageSize int
	// AllowedOrigins enables CORS for browser front-ends when not empty.
	AllowedOrigins []string
	// Codec builds public slugs. The zero value uses the default codec.
	Codec domain.Codec
}

// Handler provides HTTP handlers for the API.
type Handler struct {
	store    store.Store
	resolver *resolver.Service
	recorder *analytics.Recorder
	openapi  *openapi.Generator
	logger   *slog.Logger
	cfg      Config
}

// NewHandler creates a new API handler. A nil resolver or recorder is built
// on top of s.
func NewHandler(s store.Store, res *resolver.Service, rec *analytics.Recorder, l *slog.Logger, cfg Config) *Handler {
	if l == nil {
		l = slog.Default()
	}
	if cfg.Codec.IDPattern == nil {
		cfg.Codec = domain.DefaultCodec()
	}
	if cfg.CountryCode == "" {
		cfg.CountryCode = domain.DefaultCountryCode
	}
	if cfg.PageSize <= 0 || cfg.PageSize > domain.MaxPageSize {
		cfg.PageSize = domain.DefaultPageSize
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if res == nil {
		res = resolver.New(s, nil, cfg.Codec, l)
	}
	if rec == nil {
		rec = analytics.NewRecorder(s, 0, l)
	}
	return &Handler{
		store:    s,
		resolver: res,
		recorder: rec,
		openapi:  newDocument(cfg.BaseURL),
		logger:   l,
		cfg:      cfg,
	}
}

// Routes returns the router with all routes configured.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(h.cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: h.cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}
	r.Use(h.jsonContentType)
	r.Use(h.requestIDHeader)

	// Health endpoints
	r.Get("/health", h.handleHealth)
	r.Get("/ready", h.handleReady)
	r.Get("/openapi.json", h.openapi.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/businesses", func(r chi.Router) {
			r.Get("/", h.handleListBusinesses)
			r.Post("/", h.handleCreateBusiness)
			r.Get("/{slug}", h.handleGetBusiness)
			r.Put("/{slug}", h.handleUpdateBusiness)
			r.Delete("/{slug}", h.handleDeleteBusiness)
			r.Get("/{slug}/products", h.handleBusinessProducts)
			r.Get("/{slug}/services", h.handleBusinessServices)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.handleListProducts)
			r.Post("/", h.handleCreateProduct)
			r.Get("/{slug}", h.handleGetProduct)
			r.Put("/{slug}", h.handleUpdateProduct)
			r.Delete("/{slug}", h.handleDeleteProduct)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", h.handleListServices)
			r.Post("/", h.handleCreateService)
			r.Get("/{slug}", h.handleGetService)
			r.Put("/{slug}", h.handleUpdateService)
			r.Delete("/{slug}", h.handleDeleteService)
		})

		r.Get("/categories", h.handleListCategories)
		r.Post("/categories", h.handleCreateCategory)
		r.Get("/locations", h.handleListLocations)
		r.Post("/contact-events", h.handleContactEvent)
	})

	return r
}

// =============================================================================
// Middleware
// =============================================================================

// jsonContentType sets Content-Type header to application/json.
func (h *Handler) jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// requestIDHeader copies the request ID to the response header.
func (h *Handler) requestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if reqID := middleware.GetReqID(r.Context()); reqID != "" {
			w.Header().Set("X-Request-ID", reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Health Handlers
// =============================================================================

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "check", "database", "error", err)
		checks["database"] = "failed"
		h.writeJSON(w, http.StatusServiceUnavailable, ReadyResponse{
			Status: "not_ready",
			Checks: checks,
		})
		return
	}
	checks["database"] = "ok"

	h.writeJSON(w, http.StatusOK, ReadyResponse{
		Status: "ready",
		Checks: checks,
	})
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode JSON", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message, code string) {
	h.writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// writeFailure maps a store or resolver error to a response. entity names
// the resource in messages and codes.
func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, op, entity string, err error) {
	switch {
	case isNotFound(err):
		h.writeError(w, http.StatusNotFound, entity+" not found", entity+"_not_found")
	case errors.Is(err, store.ErrDuplicateID), errors.Is(err, store.ErrDuplicateName):
		h.writeError(w, http.StatusConflict, entity+" already exists", "conflict")
	case errors.Is(err, store.ErrForeignKey):
		h.writeError(w, http.StatusBadRequest, "referenced business or category does not exist", "invalid_reference")
	case isValidation(err):
		h.writeError(w, http.StatusBadRequest, err.Error(), "validation_error")
	default:
		h.logger.Error("request failed",
			"op", op,
			"entity", entity,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		h.writeError(w, http.StatusInternalServerError, "failed to "+op+" "+entity, "internal_error")
	}
}

// isNotFound checks if an error is a not found error from the store or the
// resolver.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, resolver.ErrNotFound)
}

var validationErrors = []error{
	domain.ErrNameRequired,
	domain.ErrNameTooLong,
	domain.ErrBusinessRequired,
	domain.ErrPriceNegative,
	domain.ErrDurationNegative,
	domain.ErrInvalidSortMode,
	domain.ErrInvalidPriceRange,
	domain.ErrInvalidEntityType,
	errInvalidCanton,
}

func isValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
