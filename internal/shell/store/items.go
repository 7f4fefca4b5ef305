package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
)

// =============================================================================
// Item rows - products and services carry owner fields joined from businesses
// =============================================================================

type itemRow struct {
	ID              string  `db:"id"`
	BusinessID      string  `db:"business_id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	CategoryID      *string `db:"category_id"`
	Price           float64 `db:"price"`
	DurationMinutes int     `db:"duration_minutes"`
	ImageURL        string  `db:"image_url"`
	Available       bool    `db:"available"`
	ContactCount    int64   `db:"contact_count"`
	SearchText      string  `db:"search_text"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`

	BusinessName   string `db:"business_name"`
	Provincia      string `db:"provincia"`
	Canton         string `db:"canton"`
	WhatsApp       string `db:"whatsapp"`
	BusinessActive bool   `db:"business_active"`
}

const ownerColumns = `b.name AS business_name, b.provincia, b.canton, b.whatsapp, b.active AS business_active`

const productSelect = `SELECT p.id, p.business_id, p.name, p.description, p.category_id, p.price,
	p.image_url, p.available, p.contact_count, p.created_at, p.updated_at, ` + ownerColumns + `
	FROM products p JOIN businesses b ON b.id = p.business_id`

const serviceSelect = `SELECT s.id, s.business_id, s.name, s.description, s.category_id, s.price,
	s.duration_minutes, s.image_url, s.available, s.contact_count, s.created_at, s.updated_at, ` + ownerColumns + `
	FROM services s JOIN businesses b ON b.id = s.business_id`

func (r *itemRow) times(entity string) (created, updated time.Time, err error) {
	if created, err = parseTime(r.CreatedAt); err != nil {
		return created, updated, NewStoreError("rowToItem", entity, r.ID, "invalid created_at", ErrInvalidData)
	}
	if updated, err = parseTime(r.UpdatedAt); err != nil {
		return created, updated, NewStoreError("rowToItem", entity, r.ID, "invalid updated_at", ErrInvalidData)
	}
	return created, updated, nil
}

// itemFilter builds the conditions shared by product and service listings.
// alias is the item table alias; location facets apply to the owning business.
func itemFilter(f domain.ListFilter, alias string) *where {
	w := &where{}
	w.add(alias + ".available = 1")
	w.add("b.active = 1")
	w.in(alias+".category_id", f.CategoryIDs)
	w.in("b.provincia", f.Provincias)
	w.in("b.canton", f.Cantons)
	w.search(alias+".search_text", f.Search)
	if f.BusinessID != "" {
		w.add(alias+".business_id = ?", f.BusinessID)
	}
	if f.MinPrice != nil {
		w.add(alias+".price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add(alias+".price <= ?", *f.MaxPrice)
	}
	return w
}

// =============================================================================
// Products
// =============================================================================

func productToRow(p *domain.Product) itemRow {
	return itemRow{
		ID:           p.ID,
		BusinessID:   p.BusinessID,
		Name:         p.Name,
		Description:  p.Description,
		CategoryID:   nullable(p.CategoryID),
		Price:        p.Price,
		ImageURL:     p.ImageURL,
		Available:    p.Available,
		ContactCount: p.ContactCount,
		SearchText:   searchText(p.Name, p.Description),
		CreatedAt:    formatTime(p.CreatedAt),
		UpdatedAt:    formatTime(p.UpdatedAt),
	}
}

func rowToProduct(r *itemRow) (*domain.Product, error) {
	created, updated, err := r.times("product")
	if err != nil {
		return nil, err
	}
	return &domain.Product{
		ID:           r.ID,
		BusinessID:   r.BusinessID,
		Name:         r.Name,
		Description:  r.Description,
		CategoryID:   deref(r.CategoryID),
		Price:        r.Price,
		ImageURL:     r.ImageURL,
		Available:    r.Available,
		ContactCount: r.ContactCount,
		CreatedAt:    created,
		UpdatedAt:    updated,
		BusinessName:   r.BusinessName,
		Provincia:      r.Provincia,
		Canton:         r.Canton,
		WhatsApp:       r.WhatsApp,
		BusinessActive: r.BusinessActive,
	}, nil
}

func createProduct(ctx context.Context, exec executor, p *domain.Product) error {
	query := `
		INSERT INTO products (
			id, business_id, name, description, category_id, price, image_url,
			available, contact_count, search_text, created_at, updated_at
		) VALUES (
			:id, :business_id, :name, :description, :category_id, :price, :image_url,
			:available, :contact_count, :search_text, :created_at, :updated_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, productToRow(p)); err != nil {
		return constraintError("CreateProduct", "product", p.ID, err)
	}
	return nil
}

func getProduct(ctx context.Context, exec executor, id string) (*domain.Product, error) {
	var row itemRow
	if err := exec.GetContext(ctx, &row, productSelect+` WHERE p.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetProduct", "product", id, "product not found", ErrNotFound)
		}
		return nil, NewStoreError("GetProduct", "product", id, err.Error(), err)
	}
	return rowToProduct(&row)
}

func updateProduct(ctx context.Context, exec executor, p *domain.Product) error {
	query := `
		UPDATE products SET
			name = :name,
			description = :description,
			category_id = :category_id,
			price = :price,
			image_url = :image_url,
			available = :available,
			search_text = :search_text,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, productToRow(p))
	if err != nil {
		return constraintError("UpdateProduct", "product", p.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewStoreError("UpdateProduct", "product", p.ID, "product not found", ErrNotFound)
	}
	return nil
}

func listProducts(ctx context.Context, exec executor, f domain.ListFilter, p domain.Page) ([]domain.Product, error) {
	w := itemFilter(f, "p")
	if w.err != nil {
		return nil, NewStoreError("ListProducts", "product", "", w.err.Error(), ErrInvalidData)
	}

	limit, pageArgs := limitOffset(p)
	query := exec.Rebind(productSelect + w.String() + orderBy(f.SortBy, "p.") + limit)

	var rows []itemRow
	if err := exec.SelectContext(ctx, &rows, query, append(w.args, pageArgs...)...); err != nil {
		return nil, NewStoreError("ListProducts", "product", "", err.Error(), err)
	}

	out := make([]domain.Product, 0, len(rows))
	for i := range rows {
		item, err := rowToProduct(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

// =============================================================================
// Services
// =============================================================================

func serviceToRow(s *domain.Service) itemRow {
	return itemRow{
		ID:              s.ID,
		BusinessID:      s.BusinessID,
		Name:            s.Name,
		Description:     s.Description,
		CategoryID:      nullable(s.CategoryID),
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		ImageURL:        s.ImageURL,
		Available:       s.Available,
		ContactCount:    s.ContactCount,
		SearchText:      searchText(s.Name, s.Description),
		CreatedAt:       formatTime(s.CreatedAt),
		UpdatedAt:       formatTime(s.UpdatedAt),
	}
}

func rowToService(r *itemRow) (*domain.Service, error) {
	created, updated, err := r.times("service")
	if err != nil {
		return nil, err
	}
	return &domain.Service{
		ID:              r.ID,
		BusinessID:      r.BusinessID,
		Name:            r.Name,
		Description:     r.Description,
		CategoryID:      deref(r.CategoryID),
		Price:           r.Price,
		DurationMinutes: r.DurationMinutes,
		ImageURL:        r.ImageURL,
		Available:       r.Available,
		ContactCount:    r.ContactCount,
		CreatedAt:       created,
		UpdatedAt:       updated,
		BusinessName:    r.BusinessName,
		Provincia:       r.Provincia,
		Canton:          r.Canton,
		WhatsApp:        r.WhatsApp,
		BusinessActive:  r.BusinessActive,
	}, nil
}

func createService(ctx context.Context, exec executor, s *domain.Service) error {
	query := `
		INSERT INTO services (
			id, business_id, name, description, category_id, price, duration_minutes,
			image_url, available, contact_count, search_text, created_at, updated_at
		) VALUES (
			:id, :business_id, :name, :description, :category_id, :price, :duration_minutes,
			:image_url, :available, :contact_count, :search_text, :created_at, :updated_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, serviceToRow(s)); err != nil {
		return constraintError("CreateService", "service", s.ID, err)
	}
	return nil
}

func getService(ctx context.Context, exec executor, id string) (*domain.Service, error) {
	var row itemRow
	if err := exec.GetContext(ctx, &row, serviceSelect+` WHERE s.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetService", "service", id, "service not found", ErrNotFound)
		}
		return nil, NewStoreError("GetService", "service", id, err.Error(), err)
	}
	return rowToService(&row)
}

func updateService(ctx context.Context, exec executor, s *domain.Service) error {
	query := `
		UPDATE services SET
			name = :name,
			description = :description,
			category_id = :category_id,
			price = :price,
			duration_minutes = :duration_minutes,
			image_url = :image_url,
			available = :available,
			search_text = :search_text,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, serviceToRow(s))
	if err != nil {
		return constraintError("UpdateService", "service", s.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewStoreError("UpdateService", "service", s.ID, "service not found", ErrNotFound)
	}
	return nil
}

func listServices(ctx context.Context, exec executor, f domain.ListFilter, p domain.Page) ([]domain.Service, error) {
	w := itemFilter(f, "s")
	if f.MinDuration != nil {
		w.add("s.duration_minutes >= ?", *f.MinDuration)
	}
	if f.MaxDuration != nil {
		w.add("s.duration_minutes <= ?", *f.MaxDuration)
	}
	if w.err != nil {
		return nil, NewStoreError("ListServices", "service", "", w.err.Error(), ErrInvalidData)
	}

	limit, pageArgs := limitOffset(p)
	query := exec.Rebind(serviceSelect + w.String() + orderBy(f.SortBy, "s.") + limit)

	var rows []itemRow
	if err := exec.SelectContext(ctx, &rows, query, append(w.args, pageArgs...)...); err != nil {
		return nil, NewStoreError("ListServices", "service", "", err.Error(), err)
	}

	out := make([]domain.Service, 0, len(rows))
	for i := range rows {
		item, err := rowToService(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}
