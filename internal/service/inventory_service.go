package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"retail-pos/internal/domain"
	"retail-pos/internal/inventory"
	"retail-pos/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryLedger is the part of the inventory ledger stock management needs
type InventoryLedger interface {
	Register(product domain.Product, initialStock, reorderPoint, reorderQuantity int) error
	Adjust(productID string, delta int) (int, error)
	Product(productID string) (domain.Product, error)
	ReorderQuantity(productID string) (int, error)
	NeedsReorder(productID string) (bool, error)
	Level(productID string) (inventory.StockLevel, error)
	Levels() []inventory.StockLevel
	LowStock() []string
	Expired() []string
}

// Restock describes one applied delivery
type Restock struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	OnHand    int             `json:"on_hand"`
	Cost      decimal.Decimal `json:"cost"`
}

// InventoryService defines stock management operations
type InventoryService interface {
	RegisterProduct(ctx context.Context, item *domain.CatalogItem) error
	Restock(ctx context.Context, productID string, quantity int) (*Restock, error)
	ReorderLowStock(ctx context.Context) ([]Restock, error)
	Level(productID string) (inventory.StockLevel, error)
	Levels() []inventory.StockLevel
	LowStock() []inventory.StockLevel
	Expired() []inventory.StockLevel
}

type inventoryService struct {
	ledger   InventoryLedger
	products repository.ProductRepository
	expenses ExpenseRecorder
	logger   *zap.Logger
}

// NewInventoryService creates a new instance of InventoryService. expenses may be nil.
func NewInventoryService(
	ledger InventoryLedger,
	products repository.ProductRepository,
	expenses ExpenseRecorder,
	logger *zap.Logger,
) InventoryService {
	return &inventoryService{
		ledger:   ledger,
		products: products,
		expenses: expenses,
		logger:   logger.Named("inventory"),
	}
}

// RegisterProduct adds a product to the catalog and the ledger and books
// the delivery of its initial stock as an expense.
func (s *inventoryService) RegisterProduct(ctx context.Context, item *domain.CatalogItem) error {
	if err := validateCatalogItem(item); err != nil {
		return err
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	if err := s.products.Create(ctx, item); err != nil {
		if errors.Is(err, repository.ErrProductAlreadyExists) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateProduct, item.ID)
		}
		return fmt.Errorf("failed to store product: %w", err)
	}

	if err := s.ledger.Register(item.Product, item.InitialStock, item.ReorderPoint, item.ReorderQuantity); err != nil {
		if derr := s.products.Delete(ctx, item.ID); derr != nil {
			s.logger.Error("Failed to remove catalog row after ledger rejection",
				zap.String("product_id", item.ID),
				zap.Error(derr),
			)
		}
		return err
	}

	s.bookDelivery(item.Product, item.InitialStock)
	return nil
}

// Restock adds quantity units to a product and books their delivery cost
func (s *inventoryService) Restock(_ context.Context, productID string, quantity int) (*Restock, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: product %s quantity %d", domain.ErrInvalidQuantity, productID, quantity)
	}
	product, err := s.ledger.Product(productID)
	if err != nil {
		return nil, err
	}

	onHand, err := s.ledger.Adjust(productID, quantity)
	if err != nil {
		return nil, err
	}

	cost := s.bookDelivery(product, quantity)
	s.logger.Info("Product restocked",
		zap.String("product_id", productID),
		zap.Int("quantity", quantity),
		zap.Int("on_hand", onHand),
	)
	return &Restock{ProductID: productID, Quantity: quantity, OnHand: onHand, Cost: cost}, nil
}

// ReorderLowStock restocks every low-stock product by its reorder quantity.
// The low-stock set can trail a concurrent restock, so each product is
// checked against its counter first. It stops at the first failure and
// returns what was applied so far.
func (s *inventoryService) ReorderLowStock(ctx context.Context) ([]Restock, error) {
	applied := make([]Restock, 0)
	for _, id := range s.ledger.LowStock() {
		low, err := s.ledger.NeedsReorder(id)
		if err != nil {
			return applied, err
		}
		if !low {
			s.logger.Debug("Skipping product restocked since it was listed", zap.String("product_id", id))
			continue
		}
		qty, err := s.ledger.ReorderQuantity(id)
		if err != nil {
			return applied, err
		}
		r, err := s.Restock(ctx, id, qty)
		if err != nil {
			return applied, err
		}
		applied = append(applied, *r)
	}
	return applied, nil
}

func (s *inventoryService) Level(productID string) (inventory.StockLevel, error) {
	return s.ledger.Level(productID)
}

func (s *inventoryService) Levels() []inventory.StockLevel {
	return s.ledger.Levels()
}

// LowStock returns levels of products at or below their reorder point
func (s *inventoryService) LowStock() []inventory.StockLevel {
	levels := s.levelsOf(s.ledger.LowStock())
	current := levels[:0]
	for _, level := range levels {
		if level.NeedsReorder {
			current = append(current, level)
		}
	}
	return current
}

// Expired returns levels of products past their expiration date
func (s *inventoryService) Expired() []inventory.StockLevel {
	return s.levelsOf(s.ledger.Expired())
}

func (s *inventoryService) levelsOf(ids []string) []inventory.StockLevel {
	levels := make([]inventory.StockLevel, 0, len(ids))
	for _, id := range ids {
		level, err := s.ledger.Level(id)
		if err != nil {
			continue
		}
		levels = append(levels, level)
	}
	return levels
}

func (s *inventoryService) bookDelivery(product domain.Product, quantity int) decimal.Decimal {
	cost := product.DeliveryCost.Mul(decimal.NewFromInt(int64(quantity)))
	if s.expenses != nil && cost.IsPositive() {
		s.expenses.RecordExpense(cost)
	}
	return cost
}

func validateCatalogItem(item *domain.CatalogItem) error {
	if item == nil {
		return fmt.Errorf("%w: product is required", domain.ErrInvalidParameter)
	}
	if item.ID == "" || item.Name == "" {
		return fmt.Errorf("%w: product id and name are required", domain.ErrInvalidParameter)
	}
	if !item.Category.Valid() {
		return fmt.Errorf("%w: unknown category %q", domain.ErrInvalidParameter, item.Category)
	}
	if item.DeliveryCost.IsNegative() {
		return fmt.Errorf("%w: delivery cost cannot be negative", domain.ErrInvalidParameter)
	}
	return nil
}
