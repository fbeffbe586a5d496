// Package analytics aggregates sales and expenses for store reporting.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"retail-pos/internal/domain"

	"github.com/shopspring/decimal"
)

// Recorder receives committed sales and store expenses
type Recorder interface {
	RecordSale(ctx context.Context, receipt *domain.Receipt) error
	RecordExpense(ctx context.Context, amount decimal.Decimal) error
}

// ProductSales is the number of units sold of one product
type ProductSales struct {
	ProductID string `json:"product_id"`
	Units     int64  `json:"units"`
}

// CashierSales is the revenue taken by one cashier
type CashierSales struct {
	CashierID string          `json:"cashier_id"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Summary is a snapshot of store performance
type Summary struct {
	Since              time.Time       `json:"since"`
	Revenue            decimal.Decimal `json:"revenue"`
	Expenses           decimal.Decimal `json:"expenses"`
	Profit             decimal.Decimal `json:"profit"`
	ProfitMargin       decimal.Decimal `json:"profit_margin"`
	Transactions       int64           `json:"transactions"`
	AverageTransaction decimal.Decimal `json:"average_transaction"`
	TopProducts        []ProductSales  `json:"top_products"`
	TopCashiers        []CashierSales  `json:"top_cashiers"`
}

// Tracker keeps analytics in memory for the lifetime of the process
type Tracker struct {
	mu           sync.Mutex
	since        time.Time
	revenue      decimal.Decimal
	expenses     decimal.Decimal
	transactions int64
	productUnits map[string]int64
	cashierSales map[string]decimal.Decimal
}

// NewTracker creates an empty tracker
func NewTracker() *Tracker {
	return &Tracker{
		since:        time.Now(),
		productUnits: make(map[string]int64),
		cashierSales: make(map[string]decimal.Decimal),
	}
}

// RecordSale adds a receipt's total and line quantities
func (t *Tracker) RecordSale(_ context.Context, receipt *domain.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("receipt is required")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.revenue = t.revenue.Add(receipt.Total)
	t.transactions++
	for _, line := range receipt.Lines() {
		t.productUnits[line.ProductID] += int64(line.Quantity)
	}
	t.cashierSales[receipt.CashierID] = t.cashierSales[receipt.CashierID].Add(receipt.Total)
	return nil
}

// RecordExpense adds a non-negative expense
func (t *Tracker) RecordExpense(_ context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("expense amount cannot be negative: %s", amount)
	}

	t.mu.Lock()
	t.expenses = t.expenses.Add(amount)
	t.mu.Unlock()
	return nil
}

// Summary returns the current figures with the top 5 products and top 3 cashiers
func (t *Tracker) Summary() Summary {
	return t.SummaryWithLimits(5, 3)
}

// SummaryWithLimits returns the current figures with the given top-N limits
func (t *Tracker) SummaryWithLimits(productLimit, cashierLimit int) Summary {
	t.mu.Lock()
	defer t.mu.Unlock()

	profit := t.revenue.Sub(t.expenses)
	s := Summary{
		Since:              t.since,
		Revenue:            t.revenue.Round(2),
		Expenses:           t.expenses.Round(2),
		Profit:             profit.Round(2),
		ProfitMargin:       decimal.Zero,
		Transactions:       t.transactions,
		AverageTransaction: decimal.Zero,
	}
	if t.revenue.IsPositive() {
		s.ProfitMargin = profit.Div(t.revenue).Mul(decimal.NewFromInt(100)).Round(2)
	}
	if t.transactions > 0 {
		s.AverageTransaction = t.revenue.Div(decimal.NewFromInt(t.transactions)).Round(2)
	}

	for id, units := range t.productUnits {
		s.TopProducts = append(s.TopProducts, ProductSales{ProductID: id, Units: units})
	}
	sort.Slice(s.TopProducts, func(i, j int) bool {
		if s.TopProducts[i].Units != s.TopProducts[j].Units {
			return s.TopProducts[i].Units > s.TopProducts[j].Units
		}
		return s.TopProducts[i].ProductID < s.TopProducts[j].ProductID
	})
	s.TopProducts = truncate(s.TopProducts, productLimit)

	for id, revenue := range t.cashierSales {
		s.TopCashiers = append(s.TopCashiers, CashierSales{CashierID: id, Revenue: revenue.Round(2)})
	}
	sort.Slice(s.TopCashiers, func(i, j int) bool {
		if c := s.TopCashiers[i].Revenue.Cmp(s.TopCashiers[j].Revenue); c != 0 {
			return c > 0
		}
		return s.TopCashiers[i].CashierID < s.TopCashiers[j].CashierID
	})
	s.TopCashiers = truncate(s.TopCashiers, cashierLimit)

	return s
}

func truncate[T any](s []T, limit int) []T {
	if limit < 0 {
		limit = 0
	}
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
