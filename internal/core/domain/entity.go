// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Name validation errors
	ErrNameRequired = errors.New("name is required")
	ErrNameTooLong  = errors.New("name must be at most 120 characters")

	// Ownership errors
	ErrBusinessRequired = errors.New("business_id is required")

	// Price validation errors
	ErrPriceNegative    = errors.New("price cannot be negative")
	ErrDurationNegative = errors.New("duration cannot be negative")

	// Type errors
	ErrInvalidEntityType = errors.New("invalid entity type")
)

// MaxNameLength is the longest accepted display name.
const MaxNameLength = 120

// =============================================================================
// Entity Type
// =============================================================================

// EntityType identifies one of the three publishable resources.
type EntityType string

const (
	EntityBusiness EntityType = "business"
	EntityProduct  EntityType = "product"
	EntityService  EntityType = "service"
)

// IsValid checks if the entity type is known.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityBusiness, EntityProduct, EntityService:
		return true
	default:
		return false
	}
}

// Route returns the plural path segment used in URLs.
func (t EntityType) Route() string {
	switch t {
	case EntityBusiness:
		return "businesses"
	case EntityProduct:
		return "products"
	case EntityService:
		return "services"
	default:
		return string(t)
	}
}

// ParseEntityType accepts both singular and plural spellings.
func ParseEntityType(s string) (EntityType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "business", "businesses":
		return EntityBusiness, nil
	case "product", "products":
		return EntityProduct, nil
	case "service", "services":
		return EntityService, nil
	default:
		return "", ErrInvalidEntityType
	}
}

// Entity is anything reachable through a detail route.
type Entity interface {
	EntityType() EntityType
	EntityID() string
	EntityName() string
}

// =============================================================================
// Category
// =============================================================================

// Category groups businesses, products and services.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// =============================================================================
// Business
// =============================================================================

// Business is a registered storefront.
type Business struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	Provincia    string    `json:"provincia,omitempty"`
	Canton       string    `json:"canton,omitempty"`
	WhatsApp     string    `json:"whatsapp,omitempty"`
	Email        string    `json:"email,omitempty"`
	Website      string    `json:"website,omitempty"`
	LogoURL      string    `json:"logo_url,omitempty"`
	Active       bool      `json:"active"`
	ContactCount int64     `json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewBusiness creates an active business with a fresh id.
func NewBusiness(name string) (*Business, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	now := time.Now()
	return &Business{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Slug returns the public slug of the business.
func (b Business) Slug() string { return Slug(b.Name, b.ID) }

func (b Business) EntityType() EntityType { return EntityBusiness }
func (b Business) EntityID() string       { return b.ID }
func (b Business) EntityName() string     { return b.Name }

// =============================================================================
// Product
// =============================================================================

// Product is a good sold by a business.
type Product struct {
	ID           string    `json:"id"`
	BusinessID   string    `json:"business_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	CategoryID   string    `json:"category_id,omitempty"`
	Price        float64   `json:"price"`
	ImageURL     string    `json:"image_url,omitempty"`
	Available    bool      `json:"available"`
	ContactCount int64     `json:"contact_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Denormalized from the owning business for listing and contact links.
	BusinessName   string `json:"business_name,omitempty"`
	Provincia      string `json:"provincia,omitempty"`
	Canton         string `json:"canton,omitempty"`
	WhatsApp       string `json:"whatsapp,omitempty"`
	BusinessActive bool   `json:"-"`
}

// NewProduct creates an available product owned by businessID.
func NewProduct(businessID, name string, price float64) (*Product, error) {
	if businessID == "" {
		return nil, ErrBusinessRequired
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, ErrPriceNegative
	}
	now := time.Now()
	return &Product{
		ID:         uuid.New().String(),
		BusinessID: businessID,
		Name:       strings.TrimSpace(name),
		Price:      price,
		Available:  true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// Slug returns the public slug of the product.
func (p Product) Slug() string { return Slug(p.Name, p.ID) }

// Visible reports whether the product is shown publicly: it is available and
// its business is active.
func (p Product) Visible() bool { return p.Available && p.BusinessActive }

func (p Product) EntityType() EntityType { return EntityProduct }
func (p Product) EntityID() string       { return p.ID }
func (p Product) EntityName() string     { return p.Name }

// =============================================================================
// Service
// =============================================================================

// Service is a bookable service offered by a business.
type Service struct {
	ID              string    `json:"id"`
	BusinessID      string    `json:"business_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	CategoryID      string    `json:"category_id,omitempty"`
	Price           float64   `json:"price"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	Available       bool      `json:"available"`
	ContactCount    int64     `json:"contact_count"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	BusinessName   string `json:"business_name,omitempty"`
	Provincia      string `json:"provincia,omitempty"`
	Canton         string `json:"canton,omitempty"`
	WhatsApp       string `json:"whatsapp,omitempty"`
	BusinessActive bool   `json:"-"`
}

// NewService creates an available service owned by businessID.
func NewService(businessID, name string, price float64, durationMinutes int) (*Service, error) {
	if businessID == "" {
		return nil, ErrBusinessRequired
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if price < 0 {
		return nil, ErrPriceNegative
	}
	if durationMinutes < 0 {
		return nil, ErrDurationNegative
	}
	now := time.Now()
	return &Service{
		ID:              uuid.New().String(),
		BusinessID:      businessID,
		Name:            strings.TrimSpace(name),
		Price:           price,
		DurationMinutes: durationMinutes,
		Available:       true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// Slug returns the public slug of the service.
func (s Service) Slug() string { return Slug(s.Name, s.ID) }

// Visible reports whether the service is shown publicly.
func (s Service) Visible() bool { return s.Available && s.BusinessActive }

func (s Service) EntityType() EntityType { return EntityService }
func (s Service) EntityID() string       { return s.ID }
func (s Service) EntityName() string     { return s.Name }

func validateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameRequired
	}
	if len([]rune(name)) > MaxNameLength {
		return ErrNameTooLong
	}
	return nil
}
