package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"retail-pos/internal/domain"

	"github.com/google/uuid"
)

// FileReceiptStore writes each receipt as a JSON document into a directory
type FileReceiptStore struct {
	dir string
}

// NewFileReceiptStore creates dir if needed
func NewFileReceiptStore(dir string) (*FileReceiptStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("receipts directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create receipts directory: %w", err)
	}
	return &FileReceiptStore{dir: dir}, nil
}

// FileName returns the name a receipt is stored under
func FileName(receipt *domain.Receipt) string {
	return fmt.Sprintf("receipt_%d_%s.json", receipt.Number, receipt.ID)
}

// Store writes the receipt to a temporary file and renames it into place,
// so readers never see a partial document.
func (s *FileReceiptStore) Store(ctx context.Context, receipt *domain.Receipt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if receipt == nil {
		return fmt.Errorf("receipt is required")
	}

	data, err := json.MarshalIndent(receipt, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode receipt: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".receipt-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create receipt file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write receipt file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync receipt file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close receipt file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, FileName(receipt))); err != nil {
		return fmt.Errorf("failed to move receipt file into place: %w", err)
	}
	return nil
}

// FindByID reads the receipt with the given id
func (s *FileReceiptStore) FindByID(ctx context.Context, id uuid.UUID) (*domain.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(s.dir, "receipt_*_"+id.String()+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to look up receipt file: %w", err)
	}
	if len(matches) == 0 {
		return nil, ErrReceiptNotFound
	}
	return readReceiptFile(matches[0])
}

// List reads every stored receipt ordered by number
func (s *FileReceiptStore) List(ctx context.Context) ([]*domain.Receipt, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "receipt_*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list receipt files: %w", err)
	}

	receipts := make([]*domain.Receipt, 0, len(matches))
	for _, name := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		receipt, err := readReceiptFile(name)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	sort.Slice(receipts, func(i, j int) bool { return receipts[i].Number < receipts[j].Number })
	return receipts, nil
}

func readReceiptFile(name string) (*domain.Receipt, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(name), err)
	}
	receipt := &domain.Receipt{}
	if err := json.Unmarshal(data, receipt); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(name), err)
	}
	return receipt, nil
}
