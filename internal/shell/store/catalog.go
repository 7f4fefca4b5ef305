package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/emprendecr/emprende/internal/core/domain"
)

// =============================================================================
// Categories
// =============================================================================

type categoryRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	CreatedAt   string `db:"created_at"`
}

func createCategory(ctx context.Context, exec executor, c *domain.Category) error {
	// A repeated id reports ErrDuplicateID even when the name repeats too.
	var n int
	if err := exec.GetContext(ctx, &n, exec.Rebind(`SELECT COUNT(*) FROM categories WHERE id = ?`), c.ID); err != nil {
		return NewStoreError("CreateCategory", "category", c.ID, err.Error(), err)
	}
	if n > 0 {
		return NewStoreError("CreateCategory", "category", c.ID, "category with this ID already exists", ErrDuplicateID)
	}

	query := `
		INSERT INTO categories (id, name, description, created_at)
		VALUES (:id, :name, :description, :created_at)`

	row := categoryRow{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		CreatedAt:   formatTime(c.CreatedAt),
	}
	if _, err := exec.NamedExecContext(ctx, query, row); err != nil {
		return constraintError("CreateCategory", "category", c.ID, err)
	}
	return nil
}

func listCategories(ctx context.Context, exec executor) ([]domain.Category, error) {
	var rows []categoryRow
	if err := exec.SelectContext(ctx, &rows, `SELECT * FROM categories ORDER BY name`); err != nil {
		return nil, NewStoreError("ListCategories", "category", "", err.Error(), err)
	}

	out := make([]domain.Category, 0, len(rows))
	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, NewStoreError("ListCategories", "category", r.ID, "invalid created_at", ErrInvalidData)
		}
		out = append(out, domain.Category{ID: r.ID, Name: r.Name, Description: r.Description, CreatedAt: created})
	}
	return out, nil
}

// =============================================================================
// Businesses
// =============================================================================

type businessRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  string  `db:"description"`
	CategoryID   *string `db:"category_id"`
	Provincia    string  `db:"provincia"`
	Canton       string  `db:"canton"`
	WhatsApp     string  `db:"whatsapp"`
	Email        string  `db:"email"`
	Website      string  `db:"website"`
	LogoURL      string  `db:"logo_url"`
	Active       bool    `db:"active"`
	ContactCount int64   `db:"contact_count"`
	SearchText   string  `db:"search_text"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

const businessColumns = `id, name, description, category_id, provincia, canton, whatsapp, email,
	website, logo_url, active, contact_count, search_text, created_at, updated_at`

func businessToRow(b *domain.Business) businessRow {
	return businessRow{
		ID:           b.ID,
		Name:         b.Name,
		Description:  b.Description,
		CategoryID:   nullable(b.CategoryID),
		Provincia:    b.Provincia,
		Canton:       b.Canton,
		WhatsApp:     b.WhatsApp,
		Email:        b.Email,
		Website:      b.Website,
		LogoURL:      b.LogoURL,
		Active:       b.Active,
		ContactCount: b.ContactCount,
		SearchText:   searchText(b.Name, b.Description),
		CreatedAt:    formatTime(b.CreatedAt),
		UpdatedAt:    formatTime(b.UpdatedAt),
	}
}

func rowToBusiness(r *businessRow) (*domain.Business, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, NewStoreError("rowToBusiness", "business", r.ID, "invalid created_at", ErrInvalidData)
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, NewStoreError("rowToBusiness", "business", r.ID, "invalid updated_at", ErrInvalidData)
	}
	return &domain.Business{
		ID:           r.ID,
		Name:         r.Name,
		Description:  r.Description,
		CategoryID:   deref(r.CategoryID),
		Provincia:    r.Provincia,
		Canton:       r.Canton,
		WhatsApp:     r.WhatsApp,
		Email:        r.Email,
		Website:      r.Website,
		LogoURL:      r.LogoURL,
		Active:       r.Active,
		ContactCount: r.ContactCount,
		CreatedAt:    created,
		UpdatedAt:    updated,
	}, nil
}

func createBusiness(ctx context.Context, exec executor, b *domain.Business) error {
	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES (
			:id, :name, :description, :category_id, :provincia, :canton, :whatsapp, :email,
			:website, :logo_url, :active, :contact_count, :search_text, :created_at, :updated_at
		)`

	if _, err := exec.NamedExecContext(ctx, query, businessToRow(b)); err != nil {
		return constraintError("CreateBusiness", "business", b.ID, err)
	}
	return nil
}

func getBusiness(ctx context.Context, exec executor, id string) (*domain.Business, error) {
	var row businessRow
	err := exec.GetContext(ctx, &row, `SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, NewStoreError("GetBusiness", "business", id, "business not found", ErrNotFound)
		}
		return nil, NewStoreError("GetBusiness", "business", id, err.Error(), err)
	}
	return rowToBusiness(&row)
}

func updateBusiness(ctx context.Context, exec executor, b *domain.Business) error {
	query := `
		UPDATE businesses SET
			name = :name,
			description = :description,
			category_id = :category_id,
			provincia = :provincia,
			canton = :canton,
			whatsapp = :whatsapp,
			email = :email,
			website = :website,
			logo_url = :logo_url,
			active = :active,
			search_text = :search_text,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := exec.NamedExecContext(ctx, query, businessToRow(b))
	if err != nil {
		return constraintError("UpdateBusiness", "business", b.ID, err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewStoreError("UpdateBusiness", "business", b.ID, "business not found", ErrNotFound)
	}
	return nil
}

func listBusinesses(ctx context.Context, exec executor, f domain.ListFilter, p domain.Page) ([]domain.Business, error) {
	w := &where{}
	w.add("active = 1")
	w.in("category_id", f.CategoryIDs)
	w.in("provincia", f.Provincias)
	w.in("canton", f.Cantons)
	w.search("search_text", f.Search)
	if f.BusinessID != "" {
		w.add("id = ?", f.BusinessID)
	}
	if w.err != nil {
		return nil, NewStoreError("ListBusinesses", "business", "", w.err.Error(), ErrInvalidData)
	}

	limit, pageArgs := limitOffset(p)
	query := exec.Rebind(`SELECT ` + businessColumns + ` FROM businesses` + w.String() + orderBy(f.SortBy, "") + limit)

	var rows []businessRow
	if err := exec.SelectContext(ctx, &rows, query, append(w.args, pageArgs...)...); err != nil {
		return nil, NewStoreError("ListBusinesses", "business", "", err.Error(), err)
	}

	out := make([]domain.Business, 0, len(rows))
	for i := range rows {
		b, err := rowToBusiness(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, nil
}

// =============================================================================
// Shared
// =============================================================================

func deleteRow(ctx context.Context, exec executor, op, entity, table, id string) error {
	result, err := exec.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return NewStoreError(op, entity, id, err.Error(), err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return NewStoreError(op, entity, id, entity+" not found", ErrNotFound)
	}
	return nil
}

func getEntity(ctx context.Context, exec executor, t domain.EntityType, id string) (domain.Entity, error) {
	// Typed nil pointers must not leak out as non-nil interfaces.
	switch t {
	case domain.EntityBusiness:
		b, err := getBusiness(ctx, exec, id)
		if err != nil {
			return nil, err
		}
		return b, nil
	case domain.EntityProduct:
		p, err := getProduct(ctx, exec, id)
		if err != nil {
			return nil, err
		}
		return p, nil
	case domain.EntityService:
		s, err := getService(ctx, exec, id)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, NewStoreError("GetEntity", string(t), id, "unknown entity type", domain.ErrInvalidEntityType)
	}
}

func listSlugCandidates(ctx context.Context, exec executor, t domain.EntityType) ([]domain.SlugCandidate, error) {
	var query string
	switch t {
	case domain.EntityBusiness:
		query = `SELECT id, name FROM businesses WHERE active = 1 ORDER BY created_at`
	case domain.EntityProduct:
		query = `SELECT p.id, p.name FROM products p JOIN businesses b ON b.id = p.business_id
			WHERE p.available = 1 AND b.active = 1 ORDER BY p.created_at`
	case domain.EntityService:
		query = `SELECT s.id, s.name FROM services s JOIN businesses b ON b.id = s.business_id
			WHERE s.available = 1 AND b.active = 1 ORDER BY s.created_at`
	default:
		return nil, NewStoreError("ListSlugCandidates", string(t), "", "unknown entity type", domain.ErrInvalidEntityType)
	}

	var out []domain.SlugCandidate
	if err := exec.SelectContext(ctx, &out, query); err != nil {
		return nil, NewStoreError("ListSlugCandidates", string(t), "", err.Error(), err)
	}
	return out, nil
}
