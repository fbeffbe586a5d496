package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retail-pos/internal/domain"
)

var (
	ErrRegisterNotFound      = errors.New("register not found")
	ErrRegisterAlreadyExists = errors.New("register with this id already exists")
)

// RegisterRepository defines the interface for register data access
type RegisterRepository interface {
	Create(ctx context.Context, register *domain.Register) error
	List(ctx context.Context) ([]*domain.Register, error)
	FindByID(ctx context.Context, id int) (*domain.Register, error)
}

type registerRepository struct {
	db *sql.DB
}

// NewRegisterRepository creates a new instance of RegisterRepository
func NewRegisterRepository(db *sql.DB) RegisterRepository {
	return &registerRepository{db: db}
}

// Create inserts a new register using parameterized queries
func (r *registerRepository) Create(ctx context.Context, register *domain.Register) error {
	query := `
		INSERT INTO registers (id, label, created_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.db.ExecContext(ctx, query, register.ID, register.Label, register.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRegisterAlreadyExists
		}
		return fmt.Errorf("failed to create register: %w", err)
	}

	return nil
}

// List retrieves all registers
func (r *registerRepository) List(ctx context.Context) ([]*domain.Register, error) {
	query := `
		SELECT id, label, created_at
		FROM registers
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list registers: %w", err)
	}
	defer rows.Close()

	registers := []*domain.Register{}
	for rows.Next() {
		register := &domain.Register{}
		if err := rows.Scan(&register.ID, &register.Label, &register.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan register: %w", err)
		}
		registers = append(registers, register)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registers: %w", err)
	}

	return registers, nil
}

// FindByID retrieves a register by ID
func (r *registerRepository) FindByID(ctx context.Context, id int) (*domain.Register, error) {
	query := `
		SELECT id, label, created_at
		FROM registers
		WHERE id = $1
	`

	register := &domain.Register{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&register.ID, &register.Label, &register.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegisterNotFound
		}
		return nil, fmt.Errorf("failed to find register by ID: %w", err)
	}

	return register, nil
}
