package store

import (
	"context"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for marketplace entities.
type Store interface {
	// Category operations
	CreateCategory(ctx context.Context, category *domain.Category) error
	ListCategories(ctx context.Context) ([]domain.Category, error)

	// Business operations
	CreateBusiness(ctx context.Context, business *domain.Business) error
	GetBusiness(ctx context.Context, id string) (*domain.Business, error)
	UpdateBusiness(ctx context.Context, business *domain.Business) error
	DeleteBusiness(ctx context.Context, id string) error
	ListBusinesses(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Business, error)

	// Product operations
	CreateProduct(ctx context.Context, product *domain.Product) error
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Product, error)

	// Service operations
	CreateService(ctx context.Context, service *domain.Service) error
	GetService(ctx context.Context, id string) (*domain.Service, error)
	UpdateService(ctx context.Context, service *domain.Service) error
	DeleteService(ctx context.Context, id string) error
	ListServices(ctx context.Context, filter domain.ListFilter, page domain.Page) ([]domain.Service, error)

	// Slug resolution support
	GetEntity(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error)
	ListSlugCandidates(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, error)

	// Contact event operations
	RecordContactEvent(ctx context.Context, event *domain.ContactEvent) error
	ListUnprocessedContactEvents(ctx context.Context, limit int) ([]domain.ContactEvent, error)
	ApplyContactEvents(ctx context.Context, events []domain.ContactEvent, processedAt time.Time) error

	// Transaction support
	WithTx(ctx context.Context, fn func(Store) error) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}
