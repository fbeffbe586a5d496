package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"retail-pos/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrReceiptNotFound = errors.New("receipt not found")
)

// ReceiptStore durably stores committed receipts
type ReceiptStore interface {
	Store(ctx context.Context, receipt *domain.Receipt) error
}

// ReceiptRepository defines the interface for receipt data access
type ReceiptRepository interface {
	ReceiptStore
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.Receipt, int, error)
}

type receiptRepository struct {
	db *sql.DB
}

// NewReceiptRepository creates a new Postgres-backed ReceiptRepository
func NewReceiptRepository(db *sql.DB) ReceiptRepository {
	return &receiptRepository{db: db}
}

// Store inserts the receipt and its lines in a single transaction
func (r *receiptRepository) Store(ctx context.Context, receipt *domain.Receipt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin receipt transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO receipts (id, number, cashier_id, register_id, total, tendered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		receipt.ID,
		receipt.Number,
		receipt.CashierID,
		receipt.RegisterID,
		receipt.Total,
		receipt.Tendered,
		receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	for _, line := range receipt.Lines() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO receipt_items (receipt_id, product_id, quantity, unit_price)
			VALUES ($1, $2, $3, $4)
		`, receipt.ID, line.ProductID, line.Quantity, line.UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert receipt item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipt: %w", err)
	}
	return nil
}

// FindByID retrieves a receipt with its lines
func (r *receiptRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	var rec domain.Receipt
	err := r.db.QueryRowContext(ctx, `
		SELECT id, number, cashier_id, register_id, total, tendered, created_at
		FROM receipts
		WHERE id = $1
	`, id).Scan(
		&rec.ID,
		&rec.Number,
		&rec.CashierID,
		&rec.RegisterID,
		&rec.Total,
		&rec.Tendered,
		&rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to find receipt: %w", err)
	}

	lines, err := r.lines(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.RestoreReceipt(rec, lines), nil
}

// List retrieves receipts newest first with pagination
func (r *receiptRepository) List(ctx context.Context, page, pageSize int) ([]*domain.Receipt, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count receipts: %w", err)
	}

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * pageSize

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, number, cashier_id, register_id, total, tendered, created_at
		FROM receipts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	var headers []domain.Receipt
	for rows.Next() {
		var rec domain.Receipt
		if err := rows.Scan(
			&rec.ID,
			&rec.Number,
			&rec.CashierID,
			&rec.RegisterID,
			&rec.Total,
			&rec.Tendered,
			&rec.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan receipt: %w", err)
		}
		headers = append(headers, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating receipts: %w", err)
	}

	receipts := make([]*domain.Receipt, 0, len(headers))
	for _, h := range headers {
		lines, err := r.lines(ctx, h.ID)
		if err != nil {
			return nil, 0, err
		}
		receipts = append(receipts, domain.RestoreReceipt(h, lines))
	}
	return receipts, total, nil
}

func (r *receiptRepository) lines(ctx context.Context, receiptID uuid.UUID) ([]domain.LineItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity, unit_price
		FROM receipt_items
		WHERE receipt_id = $1
		ORDER BY product_id
	`, receiptID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt items: %w", err)
	}
	defer rows.Close()

	var lines []domain.LineItem
	for rows.Next() {
		var l domain.LineItem
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating receipt items: %w", err)
	}
	return lines, nil
}
