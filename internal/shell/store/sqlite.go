package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emprendecr/emprende/internal/core/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// =============================================================================
// Executor Interface - Shared by DB and Transaction
// =============================================================================

// executor abstracts database operations that can be performed on both
// a database connection and a transaction.
type executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	Rebind(query string) string
}

// =============================================================================
// SQLiteStore
// =============================================================================

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLite store and runs migrations.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", withForeignKeys(dsn))
	if err != nil {
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to open database", ErrConnectionFailed)
	}

	// Every pooled connection to :memory: would get its own empty database.
	if strings.HasPrefix(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", "failed to ping database", ErrConnectionFailed)
	}

	if err := runMigrations(db.DB); err != nil {
		db.Close()
		return nil, NewStoreError("NewSQLiteStore", "", "", err.Error(), ErrMigrationFailed)
	}

	return &SQLiteStore{db: db}, nil
}

func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// runMigrations runs database migrations using embedded SQL files.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStoreError("Ping", "", "", err.Error(), ErrConnectionFailed)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// Transaction Support
// =============================================================================

func (s *SQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return NewStoreError("WithTx", "", "", "failed to begin transaction", ErrTxFailed)
	}

	if err := fn(&txSQLiteStore{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return NewStoreError("WithTx", "", "", fmt.Sprintf("rollback failed after error: %v", err), ErrTxFailed)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return NewStoreError("WithTx", "", "", "failed to commit transaction", ErrTxFailed)
	}

	return nil
}

// txSQLiteStore implements Store within a transaction.
type txSQLiteStore struct {
	tx *sqlx.Tx
}

func (s *txSQLiteStore) WithTx(ctx context.Context, fn func(Store) error) error {
	// Already in a transaction, just run the function
	return fn(s)
}

func (s *txSQLiteStore) Ping(ctx context.Context) error { return nil }

func (s *txSQLiteStore) Close() error { return nil }

// =============================================================================
// Delegation - both stores share the executor-level implementation
// =============================================================================

func (s *SQLiteStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	return createCategory(ctx, s.db, c)
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return listCategories(ctx, s.db)
}

func (s *SQLiteStore) CreateBusiness(ctx context.Context, b *domain.Business) error {
	return createBusiness(ctx, s.db, b)
}

func (s *SQLiteStore) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return getBusiness(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	return updateBusiness(ctx, s.db, b)
}

func (s *SQLiteStore) DeleteBusiness(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteBusiness", "business", "businesses", id)
}

func (s *SQLiteStore) ListBusinesses(ctx context.Context, f domain.ListFilter, p domain.Page) ([]domain.Business, error) {
	return listBusinesses(ctx, s.db, f, p)
}

func (s *SQLiteStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	return createProduct(ctx, s.db, p)
}

func (s *SQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getProduct(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return updateProduct(ctx, s.db, p)
}

func (s *SQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteProduct", "product", "products", id)
}

func (s *SQLiteStore) ListProducts(ctx context.Context, f domain.ListFilter, p domain.Page) ([]domain.Product, error) {
	return listProducts(ctx, s.db, f, p)
}

func (s *SQLiteStore) CreateService(ctx context.Context, sv *domain.Service) error {
	return createService(ctx, s.db, sv)
}

func (s *SQLiteStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return getService(ctx, s.db, id)
}

func (s *SQLiteStore) UpdateService(ctx context.Context, sv *domain.Service) error {
	return updateService(ctx, s.db, sv)
}

func (s *SQLiteStore) DeleteService(ctx context.Context, id string) error {
	return deleteRow(ctx, s.db, "DeleteService", "service", "services", id)
}

func (s *SQLiteStore) ListServices(ctx context.Context, f domain.ListFilter, p domain.Page) ([]domain.Service, error) {
	return listServices(ctx, s.db, f, p)
}

func (s *SQLiteStore) GetEntity(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error) {
	return getEntity(ctx, s.db, t, id)
}

func (s *SQLiteStore) ListSlugCandidates(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, error) {
	return listSlugCandidates(ctx, s.db, t)
}

func (s *SQLiteStore) RecordContactEvent(ctx context.Context, e *domain.ContactEvent) error {
	return recordContactEvent(ctx, s.db, e)
}

func (s *SQLiteStore) ListUnprocessedContactEvents(ctx context.Context, limit int) ([]domain.ContactEvent, error) {
	return listUnprocessedContactEvents(ctx, s.db, limit)
}

func (s *SQLiteStore) ApplyContactEvents(ctx context.Context, events []domain.ContactEvent, at time.Time) error {
	return applyContactEvents(ctx, s.db, events, at)
}

func (s *txSQLiteStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	return createCategory(ctx, s.tx, c)
}

func (s *txSQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return listCategories(ctx, s.tx)
}

func (s *txSQLiteStore) CreateBusiness(ctx context.Context, b *domain.Business) error {
	return createBusiness(ctx, s.tx, b)
}

func (s *txSQLiteStore) GetBusiness(ctx context.Context, id string) (*domain.Business, error) {
	return getBusiness(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateBusiness(ctx context.Context, b *domain.Business) error {
	return updateBusiness(ctx, s.tx, b)
}

func (s *txSQLiteStore) DeleteBusiness(ctx context.Context, id string) error {
	return deleteRow(ctx, s.tx, "DeleteBusiness", "business", "businesses", id)
}

func (s *txSQLiteStore) ListBusinesses(ctx context.Context, f domain.ListFilter, p domain.Page) ([]domain.Business, error) {
	return listBusinesses(ctx, s.tx, f, p)
}

func (s *txSQLiteStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	return createProduct(ctx, s.tx, p)
}

func (s *txSQLiteStore) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return getProduct(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateProduct(ctx context.Context, p *domain.Product) error {
	return updateProduct(ctx, s.tx, p)
}

func (s *txSQLiteStore) DeleteProduct(ctx context.Context, id string) error {
	return deleteRow(ctx, s.tx, "DeleteProduct", "product", "products", id)
}

func (s *txSQLiteStore) ListProducts(ctx context.Context, f domain.ListFilter, p domain.Page) ([]domain.Product, error) {
	return listProducts(ctx, s.tx, f, p)
}

func (s *txSQLiteStore) CreateService(ctx context.Context, sv *domain.Service) error {
	return createService(ctx, s.tx, sv)
}

func (s *txSQLiteStore) GetService(ctx context.Context, id string) (*domain.Service, error) {
	return getService(ctx, s.tx, id)
}

func (s *txSQLiteStore) UpdateService(ctx context.Context, sv *domain.Service) error {
	return updateService(ctx, s.tx, sv)
}

func (s *txSQLiteStore) DeleteService(ctx context.Context, id string) error {
	return deleteRow(ctx, s.tx, "DeleteService", "service", "services", id)
}

func (s *txSQLiteStore) ListServices(ctx context.Context, f domain.ListFilter, p domain.Page) ([]domain.Service, error) {
	return listServices(ctx, s.tx, f, p)
}

func (s *txSQLiteStore) GetEntity(ctx context.Context, t domain.EntityType, id string) (domain.Entity, error) {
	return getEntity(ctx, s.tx, t, id)
}

func (s *txSQLiteStore) ListSlugCandidates(ctx context.Context, t domain.EntityType) ([]domain.SlugCandidate, error) {
	return listSlugCandidates(ctx, s.tx, t)
}

func (s *txSQLiteStore) RecordContactEvent(ctx context.Context, e *domain.ContactEvent) error {
	return recordContactEvent(ctx, s.tx, e)
}

func (s *txSQLiteStore) ListUnprocessedContactEvents(ctx context.Context, limit int) ([]domain.ContactEvent, error) {
	return listUnprocessedContactEvents(ctx, s.tx, limit)
}

func (s *txSQLiteStore) ApplyContactEvents(ctx context.Context, events []domain.ContactEvent, at time.Time) error {
	return applyContactEvents(ctx, s.tx, events, at)
}

// =============================================================================
// Time encoding
// =============================================================================

// timeLayout is fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339, s)
	}
	return t, nil
}
