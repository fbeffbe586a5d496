package inventory

import (
	"errors"
	"sync"
	"testing"
	"time"

	"retail-pos/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var today = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestLedger() *Ledger {
	return NewLedger(zap.NewNop(), WithClock(func() time.Time { return today }))
}

func product(id string) domain.Product {
	return domain.Product{ID: id, Name: id, Category: domain.CategoryFood, DeliveryCost: decimal.NewFromInt(1)}
}

func TestLedger_RegisterValidation(t *testing.T) {
	l := newTestLedger()

	tests := []struct {
		name         string
		id           string
		stock        int
		reorderPoint int
		reorder      int
		want         error
	}{
		{"empty id", "", 1, 1, 1, domain.ErrInvalidParameter},
		{"negative stock", "a", -1, 1, 1, domain.ErrInvalidParameter},
		{"negative reorder point", "a", 1, -1, 1, domain.ErrInvalidParameter},
		{"zero reorder quantity", "a", 1, 1, 0, domain.ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := l.Register(product(tt.id), tt.stock, tt.reorderPoint, tt.reorder); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	if err := l.Register(product("a"), 0, 0, 1); err != nil {
		t.Fatalf("Zero stock is valid, got %v", err)
	}
	if err := l.Register(product("a"), 5, 0, 1); !errors.Is(err, domain.ErrDuplicateProduct) {
		t.Errorf("Expected ErrDuplicateProduct, got %v", err)
	}
}

func TestLedger_AdjustAndQuery(t *testing.T) {
	l := newTestLedger()
	if err := l.Register(product("milk"), 100, 20, 80); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	q, err := l.Adjust("milk", -85)
	if err != nil || q != 15 {
		t.Fatalf("Expected 15 after debit, got %d (%v)", q, err)
	}
	if needs, _ := l.NeedsReorder("milk"); !needs {
		t.Error("Expected milk to need reorder at 15 <= 20")
	}

	if _, err := l.Adjust("milk", -16); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Errorf("Expected ErrInsufficientStock, got %v", err)
	}
	if q, _ := l.Query("milk"); q != 15 {
		t.Errorf("Failed debit must not change stock, got %d", q)
	}

	if q, err := l.Adjust("milk", 80); err != nil || q != 95 {
		t.Errorf("Expected 95 after restock, got %d (%v)", q, err)
	}
	if len(l.LowStock()) != 0 {
		t.Errorf("Milk should leave the low-stock set, got %v", l.LowStock())
	}

	if _, err := l.Adjust("ghost", 1); !errors.Is(err, domain.ErrUnknownProduct) {
		t.Errorf("Expected ErrUnknownProduct, got %v", err)
	}
	if _, err := l.Query("ghost"); !errors.Is(err, domain.ErrUnknownProduct) {
		t.Errorf("Expected ErrUnknownProduct, got %v", err)
	}
}

func TestLedger_ReorderBoundaryIsInclusive(t *testing.T) {
	l := newTestLedger()
	if err := l.Register(product("tea"), 21, 20, 10); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if needs, _ := l.NeedsReorder("tea"); needs {
		t.Error("21 > 20 should not need reorder")
	}
	if _, err := l.Adjust("tea", -1); err != nil {
		t.Fatalf("Adjust failed: %v", err)
	}
	if needs, _ := l.NeedsReorder("tea"); !needs {
		t.Error("20 <= 20 should need reorder")
	}
	level, err := l.Level("tea")
	if err != nil || !level.NeedsReorder || level.Quantity != 20 {
		t.Errorf("Unexpected level %+v (%v)", level, err)
	}
}

func TestLedger_ExpiredSet(t *testing.T) {
	l := newTestLedger()

	yesterday := today.AddDate(0, 0, -1)
	sameDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	expired := product("old")
	expired.ExpiresOn = &yesterday
	fresh := product("fresh")
	fresh.ExpiresOn = &sameDay

	if err := l.Register(expired, 5, 1, 5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := l.Register(fresh, 5, 1, 5); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	got := l.Expired()
	if len(got) != 1 || got[0] != "old" {
		t.Errorf("Expected only old to be expired, got %v", got)
	}

	levels := l.Levels()
	if len(levels) != 2 || levels[0].ProductID != "fresh" || levels[1].ProductID != "old" || !levels[1].Expired {
		t.Errorf("Unexpected levels %+v", levels)
	}
}

func TestLedger_ConcurrentDebitsNeverOversell(t *testing.T) {
	l := newTestLedger()
	if err := l.Register(product("rice"), 100, 10, 50); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		debited int
	)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Adjust("rice", -1); err == nil {
				mu.Lock()
				debited++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	q, _ := l.Query("rice")
	if q != 0 || debited != 100 {
		t.Errorf("Expected exactly 100 debits and 0 left, got %d debits and %d left", debited, q)
	}
}

// Feature: retail-pos, Property 1: Stock is conserved and never negative
func TestProperty_StockIsConserved(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("final stock equals initial plus the sum of applied deltas", prop.ForAll(
		func(initial int, deltas []int) bool {
			l := newTestLedger()
			if err := l.Register(product("p"), initial, 0, 1); err != nil {
				return false
			}

			var (
				wg      sync.WaitGroup
				mu      sync.Mutex
				applied int
			)
			for _, d := range deltas {
				wg.Add(1)
				go func(d int) {
					defer wg.Done()
					if _, err := l.Adjust("p", d); err == nil {
						mu.Lock()
						applied += d
						mu.Unlock()
					}
				}(d)
			}
			wg.Wait()

			q, err := l.Query("p")
			return err == nil && q >= 0 && q == initial+applied
		},
		gen.IntRange(0, 100),
		gen.SliceOf(gen.IntRange(-20, 20)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
