package api

import "github.com/emprendecr/emprende/internal/core/domain"

// =============================================================================
// Request Types
// =============================================================================

// BusinessRequest is the body of business create and replace requests.
type BusinessRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description,omitempty" validate:"max=2000"`
	CategoryID  string `json:"category_id,omitempty"`
	Provincia   string `json:"provincia,omitempty" validate:"omitempty,provincia"`
	Canton      string `json:"canton,omitempty" validate:"omitempty,max=60"`
	WhatsApp    string `json:"whatsapp,omitempty" validate:"omitempty,min=8,max=20"`
	Email       string `json:"email,omitempty" validate:"omitempty,email"`
	Website     string `json:"website,omitempty" validate:"omitempty,url"`
	LogoURL     string `json:"logo_url,omitempty" validate:"omitempty,url"`
	Active      *bool  `json:"active,omitempty"`
}

// ProductRequest is the body of product create and replace requests. An
// empty business_id on replace keeps the current owner.
type ProductRequest struct {
	BusinessID  string  `json:"business_id,omitempty"`
	Name        string  `json:"name" validate:"required,max=120"`
	Description string  `json:"description,omitempty" validate:"max=2000"`
	CategoryID  string  `json:"category_id,omitempty"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Available   *bool   `json:"available,omitempty"`
}

// ServiceRequest is the body of service create and replace requests.
type ServiceRequest struct {
	BusinessID      string  `json:"business_id,omitempty"`
	Name            string  `json:"name" validate:"required,max=120"`
	Description     string  `json:"description,omitempty" validate:"max=2000"`
	CategoryID      string  `json:"category_id,omitempty"`
	Price           float64 `json:"price" validate:"gte=0"`
	DurationMinutes int     `json:"duration_minutes,omitempty" validate:"gte=0"`
	ImageURL        string  `json:"image_url,omitempty" validate:"omitempty,url"`
	Available       *bool   `json:"available,omitempty"`
}

// CategoryRequest is the body of a category create request.
type CategoryRequest struct {
	ID          string `json:"id,omitempty" validate:"omitempty,max=64"`
	Name        string `json:"name" validate:"required,max=80"`
	Description string `json:"description,omitempty" validate:"max=500"`
}

// ContactEventRequest reports a visitor opening a WhatsApp chat.
type ContactEventRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	ProductID  string `json:"product_id,omitempty" validate:"omitempty,excluded_with=ServiceID"`
	ServiceID  string `json:"service_id,omitempty"`
}

// listParams are the query parameters of every listing route.
type listParams struct {
	CategoryIDs []string `json:"category_id" validate:"dive,max=64"`
	Provincias  []string `json:"provincia" validate:"dive,max=60"`
	Cantons     []string `json:"canton" validate:"dive,max=60"`
	Search      string   `json:"search" validate:"max=200"`
	MinPrice    *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice    *float64 `json:"max_price" validate:"omitempty,gte=0"`
	MinDuration *int     `json:"min_duration" validate:"omitempty,gte=0"`
	MaxDuration *int     `json:"max_duration" validate:"omitempty,gte=0"`
	SortBy      string   `json:"sort_by" validate:"omitempty,oneof=random popularity newest"`
	Page        int      `json:"page" validate:"gte=1"`
	Limit       int      `json:"limit" validate:"gte=1,max=100"`
}

// =============================================================================
// Response Types
// =============================================================================

// Links are the derived public routes of an entity.
type Links struct {
	Slug        string `json:"slug"`
	Path        string `json:"path"`
	URL         string `json:"url,omitempty"`
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}

// BusinessResponse is a business with its public links.
type BusinessResponse struct {
	domain.Business
	Links
}

// ProductResponse is a product with its public links.
type ProductResponse struct {
	domain.Product
	Links
}

// ServiceResponse is a service with its public links.
type ServiceResponse struct {
	domain.Service
	Links
}

// ListResponse is one page of a listing. HasMore is true when the page came
// back full.
type ListResponse[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasMore bool `json:"has_more"`
}

// StorefrontResponse is a business with one page of its items.
type StorefrontResponse[T any] struct {
	Business BusinessResponse `json:"business"`
	ListResponse[T]
}

// CategoriesResponse lists every category.
type CategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

// LocationsResponse lists provincias with their cantones.
type LocationsResponse struct {
	Provincias []domain.Provincia `json:"provincias"`
}

// ContactEventResponse acknowledges a contact event.
type ContactEventResponse struct {
	Status string `json:"status"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse represents the readiness check response.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
