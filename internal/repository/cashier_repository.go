package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retail-pos/internal/domain"
)

var (
	ErrCashierNotFound      = errors.New("cashier not found")
	ErrCashierAlreadyExists = errors.New("cashier with this id already exists")
)

// CashierRepository defines the interface for cashier data access
type CashierRepository interface {
	Create(ctx context.Context, cashier *domain.Cashier) error
	FindByID(ctx context.Context, id string) (*domain.Cashier, error)
	List(ctx context.Context) ([]*domain.Cashier, error)
}

type cashierRepository struct {
	db *sql.DB
}

// NewCashierRepository creates a new instance of CashierRepository
func NewCashierRepository(db *sql.DB) CashierRepository {
	return &cashierRepository{db: db}
}

// Create inserts a new cashier using parameterized queries
func (r *cashierRepository) Create(ctx context.Context, cashier *domain.Cashier) error {
	query := `
		INSERT INTO cashiers (id, name, monthly_salary, pin_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		cashier.ID,
		cashier.Name,
		cashier.MonthlySalary,
		cashier.PINHash,
		cashier.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCashierAlreadyExists
		}
		return fmt.Errorf("failed to create cashier: %w", err)
	}

	return nil
}

// FindByID retrieves a cashier by ID
func (r *cashierRepository) FindByID(ctx context.Context, id string) (*domain.Cashier, error) {
	query := `
		SELECT id, name, monthly_salary, pin_hash, created_at
		FROM cashiers
		WHERE id = $1
	`

	cashier := &domain.Cashier{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&cashier.ID,
		&cashier.Name,
		&cashier.MonthlySalary,
		&cashier.PINHash,
		&cashier.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCashierNotFound
		}
		return nil, fmt.Errorf("failed to find cashier by ID: %w", err)
	}

	return cashier, nil
}

// List retrieves all cashiers ordered by id
func (r *cashierRepository) List(ctx context.Context) ([]*domain.Cashier, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, monthly_salary, pin_hash, created_at
		FROM cashiers
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cashiers: %w", err)
	}
	defer rows.Close()

	cashiers := []*domain.Cashier{}
	for rows.Next() {
		cashier := &domain.Cashier{}
		if err := rows.Scan(
			&cashier.ID,
			&cashier.Name,
			&cashier.MonthlySalary,
			&cashier.PINHash,
			&cashier.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cashier: %w", err)
		}
		cashiers = append(cashiers, cashier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cashiers: %w", err)
	}

	return cashiers, nil
}
