package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"

	"retail-pos/internal/analytics"
	"retail-pos/internal/assignment"
	"retail-pos/internal/domain"
	"retail-pos/internal/inventory"
	"retail-pos/internal/middleware"
	"retail-pos/internal/repository"
	"retail-pos/internal/sequence"
	"retail-pos/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const fixtureSecret = "transport-test-secret"

// Mock repositories for testing
type mockProductRepository struct {
	mu    sync.Mutex
	items map[string]*domain.CatalogItem
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
	out := make([]*domain.CatalogItem, 0, len(m.items))
	for _, it := range m.items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

type mockCashierRepository struct {
	mu       sync.Mutex
	cashiers map[string]*domain.Cashier
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
	return out, nil
}

type mockRegisterRepository struct {
	registers map[int]*domain.Register
}

func (m *mockRegisterRepository) Create(ctx context.Context, register *domain.Register) error {
	m.registers[register.ID] = register
	return nil
}

func (m *mockRegisterRepository) List(ctx context.Context) ([]*domain.Register, error) {
	out := make([]*domain.Register, 0, len(m.registers))
	for _, r := range m.registers {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRegisterRepository) FindByID(ctx context.Context, id int) (*domain.Register, error) {
	register, exists := m.registers[id]
	if !exists {
		return nil, repository.ErrRegisterNotFound
	}
	return register, nil
}

// trackerRecorder feeds the tracker synchronously so tests can read it right away
type trackerRecorder struct {
	tracker *analytics.Tracker
}

func (r trackerRecorder) RecordSale(receipt *domain.Receipt) {
	_ = r.tracker.RecordSale(context.Background(), receipt)
}

func (r trackerRecorder) RecordExpense(amount decimal.Decimal) {
	_ = r.tracker.RecordExpense(context.Background(), amount)
}

type storeFixture struct {
	ledger    *inventory.Ledger
	registry  *assignment.Registry
	tracker   *analytics.Tracker
	receipts  *repository.FileReceiptStore
	shifts    service.ShiftService
	inventory service.InventoryService
	sales     service.SaleService
	router    chi.Router
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	logger := zap.NewNop()

	receipts, err := repository.NewFileReceiptStore(t.TempDir())
	require.NoError(t, err)

	f := &storeFixture{
		ledger:   inventory.NewLedger(logger),
		registry: assignment.NewRegistry(logger),
		tracker:  analytics.NewTracker(),
		receipts: receipts,
	}
	recorder := trackerRecorder{tracker: f.tracker}

	products := &mockProductRepository{items: make(map[string]*domain.CatalogItem)}
	cashiers := &mockCashierRepository{cashiers: make(map[string]*domain.Cashier)}
	registers := &mockRegisterRepository{registers: map[int]*domain.Register{
		1: {ID: 1, Label: "front"},
		2: {ID: 2, Label: "back"},
	}}

	pricing := domain.PricingPolicy{
		FoodMarkup:            decimal.Zero,
		NonFoodMarkup:         decimal.Zero,
		ExpirationWarningDays: 7,
		NearExpiryDiscount:    decimal.NewFromFloat(0.20),
	}

	f.shifts = service.NewShiftService(cashiers, registers, f.registry, recorder, fixtureSecret, 0, logger)
	f.inventory = service.NewInventoryService(f.ledger, products, recorder, logger)
	f.sales = service.NewSaleService(f.ledger, f.registry, sequence.New(), receipts, recorder, pricing, logger)

	ctx := context.Background()
	for _, p := range []struct {
		id, cost       string
		category       domain.Category
		stock, reorder int
	}{
		{id: "milk", cost: "2.00", category: domain.CategoryFood, stock: 10, reorder: 2},
		{id: "soap", cost: "1.50", category: domain.CategoryNonFood, stock: 3, reorder: 5},
	} {
		err := f.inventory.RegisterProduct(ctx, &domain.CatalogItem{
			Product: domain.Product{
				ID:           p.id,
				Name:         p.id,
				Category:     p.category,
				DeliveryCost: decimal.RequireFromString(p.cost),
			},
			StockSettings: domain.StockSettings{InitialStock: p.stock, ReorderPoint: p.reorder, ReorderQuantity: 20},
		})
		require.NoError(t, err)
	}
	for _, c := range []string{"alice", "bob"} {
		_, err := f.shifts.HireCashier(ctx, c, c, "1234", decimal.NewFromInt(2000))
		require.NoError(t, err)
	}

	auth := middleware.AuthMiddleware(fixtureSecret, logger)
	match := middleware.RequireRegisterMatch(logger)

	shiftHandler := NewShiftHandler(f.shifts, logger)
	router := chi.NewRouter()
	router.Get("/api/registers", shiftHandler.ListAssignments)
	router.Route("/api/registers/{registerID}", func(r chi.Router) {
		shiftHandler.RegisterRoutes(r, auth, match)
		NewSaleHandler(f.sales, logger).RegisterRoutes(r, auth, match)
	})
	NewInventoryHandler(f.inventory, logger).RegisterRoutes(router, auth)
	NewCashierHandler(f.shifts, logger).RegisterRoutes(router, auth)
	NewAnalyticsHandler(f.tracker, f.sales, logger).RegisterRoutes(router)
	NewReceiptHandler(receipts, logger).RegisterRoutes(router)
	f.router = router

	return f
}

func (f *storeFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *storeFixture) signIn(t *testing.T, registerID, cashierID string) string {
	t.Helper()
	w := f.do(t, "POST", "/api/registers/"+registerID+"/sign-in", "", SignInRequest{CashierID: cashierID, PIN: "1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SignInResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorDetail {
	t.Helper()
	var resp middleware.ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp.Error
}

func saleBody(tendered string, lines ...SaleLine) SaleRequest {
	return SaleRequest{Items: lines, Tendered: tendered}
}
