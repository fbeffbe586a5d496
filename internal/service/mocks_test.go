package service

import (
	"context"
	"sort"
	"sync"

	"retail-pos/internal/domain"
	"retail-pos/internal/repository"

	"github.com/shopspring/decimal"
)

// Mock repositories for testing
type mockProductRepository struct {
	mu    sync.Mutex
	items map[string]*domain.CatalogItem
}

func newMockProductRepository(items ...*domain.CatalogItem) *mockProductRepository {
	m := &mockProductRepository{items: make(map[string]*domain.CatalogItem)}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *mockProductRepository) Create(ctx context.Context, item *domain.CatalogItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[item.ID]; exists {
		return repository.ErrProductAlreadyExists
	}
	m.items[item.ID] = item
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, exists := m.items[id]
	if !exists {
		return nil, repository.ErrProductNotFound
	}
	return item, nil
}

func (m *mockProductRepository) List(ctx context.Context) ([]*domain.CatalogItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]*domain.CatalogItem, 0, len(m.items))
	for _, it := range m.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.items[id]; !exists {
		return repository.ErrProductNotFound
	}
	delete(m.items, id)
	return nil
}

type mockCashierRepository struct {
	mu       sync.Mutex
	cashiers map[string]*domain.Cashier
}

func newMockCashierRepository() *mockCashierRepository {
	return &mockCashierRepository{cashiers: make(map[string]*domain.Cashier)}
}

func (m *mockCashierRepository) Create(ctx context.Context, cashier *domain.Cashier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cashiers[cashier.ID]; exists {
		return repository.ErrCashierAlreadyExists
	}
	m.cashiers[cashier.ID] = cashier
	return nil
}

func (m *mockCashierRepository) FindByID(ctx context.Context, id string) (*domain.Cashier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cashier, exists := m.cashiers[id]
	if !exists {
		return nil, repository.ErrCashierNotFound
	}
	return cashier, nil
}

func (m *mockCashierRepository) List(ctx context.Context) ([]*domain.Cashier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Cashier, 0, len(m.cashiers))
	for _, c := range m.cashiers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type mockRegisterRepository struct {
	registers map[int]*domain.Register
}

func newMockRegisterRepository(ids ...int) *mockRegisterRepository {
	m := &mockRegisterRepository{registers: make(map[int]*domain.Register)}
	for _, id := range ids {
		m.registers[id] = &domain.Register{ID: id}
	}
	return m
}

func (m *mockRegisterRepository) Create(ctx context.Context, register *domain.Register) error {
	if _, exists := m.registers[register.ID]; exists {
		return repository.ErrRegisterAlreadyExists
	}
	m.registers[register.ID] = register
	return nil
}

func (m *mockRegisterRepository) List(ctx context.Context) ([]*domain.Register, error) {
	out := make([]*domain.Register, 0, len(m.registers))
	for _, r := range m.registers {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRegisterRepository) FindByID(ctx context.Context, id int) (*domain.Register, error) {
	register, exists := m.registers[id]
	if !exists {
		return nil, repository.ErrRegisterNotFound
	}
	return register, nil
}

// mockReceiptStore records stored receipts and can be told to fail
type mockReceiptStore struct {
	mu       sync.Mutex
	receipts []*domain.Receipt
	err      error
}

func (m *mockReceiptStore) Store(ctx context.Context, receipt *domain.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.receipts = append(m.receipts, receipt)
	return nil
}

func (m *mockReceiptStore) stored() []*domain.Receipt {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Receipt, len(m.receipts))
	copy(out, m.receipts)
	return out
}

// eventSink collects the sales and expenses handed to analytics
type eventSink struct {
	mu       sync.Mutex
	sales    []*domain.Receipt
	expenses []decimal.Decimal
}

func (e *eventSink) RecordSale(receipt *domain.Receipt) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sales = append(e.sales, receipt)
}

func (e *eventSink) RecordExpense(amount decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.expenses = append(e.expenses, amount)
}

func (e *eventSink) saleCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sales)
}

func (e *eventSink) expenseTotal() decimal.Decimal {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := decimal.Zero
	for _, x := range e.expenses {
		total = total.Add(x)
	}
	return total
}
