package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retail-pos/internal/domain"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product with this id already exists")
)

// ProductRepository defines the interface for catalog data access.
// Stock quantities live in the inventory ledger; the catalog only keeps the
// settings a product is registered with at startup.
type ProductRepository interface {
	Create(ctx context.Context, item *domain.CatalogItem) error
	FindByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	List(ctx context.Context) ([]*domain.CatalogItem, error)
	Delete(ctx context.Context, id string) error
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = `id, name, category, delivery_cost, expires_on, initial_stock, reorder_point, reorder_quantity, created_at`

// Create inserts a new catalog product using parameterized queries
func (r *productRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		item.ID,
		item.Name,
		string(item.Category),
		item.DeliveryCost,
		item.ExpiresOn,
		item.InitialStock,
		item.ReorderPoint,
		item.ReorderQuantity,
		item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrProductAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// FindByID retrieves a catalog product by ID
func (r *productRepository) FindByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	item, err := scanCatalogItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return item, nil
}

// List retrieves every catalog product ordered by id
func (r *productRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	items := []*domain.CatalogItem{}
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return items, nil
}

// Delete removes a product from the catalog
func (r *productRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCatalogItem(row rowScanner) (*domain.CatalogItem, error) {
	item := &domain.CatalogItem{}
	var (
		category  string
		expiresOn sql.NullTime
	)
	err := row.Scan(
		&item.ID,
		&item.Name,
		&category,
		&item.DeliveryCost,
		&expiresOn,
		&item.InitialStock,
		&item.ReorderPoint,
		&item.ReorderQuantity,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Category = domain.Category(category)
	if expiresOn.Valid {
		t := expiresOn.Time
		item.ExpiresOn = &t
	}
	return item, nil
}
