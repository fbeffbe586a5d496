package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"retail-pos/internal/domain"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const sqliteReceiptSchema = `
CREATE TABLE IF NOT EXISTS receipts (
	id TEXT PRIMARY KEY,
	number INTEGER NOT NULL,
	cashier_id TEXT NOT NULL,
	register_id INTEGER NOT NULL,
	total TEXT NOT NULL,
	tendered TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS receipt_items (
	receipt_id TEXT NOT NULL REFERENCES receipts(id) ON DELETE CASCADE,
	product_id TEXT NOT NULL,
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price TEXT NOT NULL,
	PRIMARY KEY (receipt_id, product_id)
);
CREATE INDEX IF NOT EXISTS idx_receipts_created_at ON receipts(created_at);
`

// SQLiteReceiptStore keeps receipts in a local SQLite file. Used by
// single-till deployments that run without Postgres.
type SQLiteReceiptStore struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// OpenSQLiteReceiptStore opens the database at path and creates the receipt tables
func OpenSQLiteReceiptStore(path string) (*SQLiteReceiptStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent sales
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(sqliteReceiptSchema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create receipt tables: %w", err)
	}
	return &SQLiteReceiptStore{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle
func (s *SQLiteReceiptStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Store inserts the receipt and its lines in one transaction
func (s *SQLiteReceiptStore) Store(ctx context.Context, receipt *domain.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("receipt is required")
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin receipt transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, number, cashier_id, register_id, total, tendered, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID.String(),
		receipt.Number,
		receipt.CashierID,
		receipt.RegisterID,
		receipt.Total.String(),
		receipt.Tendered.String(),
		toMillis(receipt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	for _, line := range receipt.Lines() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO receipt_items (receipt_id, product_id, quantity, unit_price) VALUES (?, ?, ?, ?)`,
			receipt.ID.String(), line.ProductID, line.Quantity, line.UnitPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert receipt item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit receipt: %w", err)
	}
	return nil
}

// FindByID reads one receipt back
func (s *SQLiteReceiptStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	var (
		rec       domain.Receipt
		rawID     string
		createdAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, number, cashier_id, register_id, total, tendered, created_at FROM receipts WHERE id = ?`,
		id.String(),
	).Scan(&rawID, &rec.Number, &rec.CashierID, &rec.RegisterID, &rec.Total, &rec.Tendered, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReceiptNotFound
		}
		return nil, fmt.Errorf("failed to find receipt: %w", err)
	}
	if rec.ID, err = uuid.Parse(rawID); err != nil {
		return nil, fmt.Errorf("invalid receipt id %q: %w", rawID, err)
	}
	rec.CreatedAt = fromMillis(createdAt)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT product_id, quantity, unit_price FROM receipt_items WHERE receipt_id = ? ORDER BY product_id`,
		rawID,
	)
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
	return domain.RestoreReceipt(rec, lines), nil
}

// Count returns the number of stored receipts
func (s *SQLiteReceiptStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count receipts: %w", err)
	}
	return n, nil
}
