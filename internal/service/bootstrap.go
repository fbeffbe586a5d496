package service

import (
	"context"
	"fmt"

	"retail-pos/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Bootstrap loads the catalog into the in-memory ledger before the server
// accepts traffic. It runs single-threaded.
type Bootstrap struct {
	Products  repository.ProductRepository
	Cashiers  repository.CashierRepository
	Registers repository.RegisterRepository
	Ledger    InventoryLedger
	Expenses  ExpenseRecorder
	Logger    *zap.Logger
}

// BootstrapResult counts what was loaded
type BootstrapResult struct {
	Products  int
	Cashiers  int
	Registers int
}

// Run registers every catalog product in the ledger and books the store's
// standing expenses: each cashier's salary and each product's delivery.
func (b *Bootstrap) Run(ctx context.Context) (*BootstrapResult, error) {
	log := b.Logger.Named("bootstrap")

	items, err := b.Products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	for _, item := range items {
		if err := b.Ledger.Register(item.Product, item.InitialStock, item.ReorderPoint, item.ReorderQuantity); err != nil {
			return nil, fmt.Errorf("failed to register product %s: %w", item.ID, err)
		}
		if b.Expenses != nil {
			b.Expenses.RecordExpense(item.DeliveryCost.Mul(decimal.NewFromInt(int64(item.InitialStock))))
		}
	}

	cashiers, err := b.Cashiers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cashiers: %w", err)
	}
	for _, c := range cashiers {
		if b.Expenses != nil {
			b.Expenses.RecordExpense(c.MonthlySalary)
		}
	}

	registers, err := b.Registers.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load registers: %w", err)
	}

	result := &BootstrapResult{
		Products:  len(items),
		Cashiers:  len(cashiers),
		Registers: len(registers),
	}
	log.Info("Store loaded",
		zap.Int("products", result.Products),
		zap.Int("cashiers", result.Cashiers),
		zap.Int("registers", result.Registers),
		zap.Int("low_stock", len(b.Ledger.LowStock())),
		zap.Int("expired", len(b.Ledger.Expired())),
	)
	return result, nil
}
