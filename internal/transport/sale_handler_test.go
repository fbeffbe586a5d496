package transport

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"testing"

	"retail-pos/internal/analytics"
	"retail-pos/internal/domain"
	"retail-pos/internal/inventory"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaleHandler_ShiftAndSaleFlow(t *testing.T) {
	f := newStoreFixture(t)
	token := f.signIn(t, "1", "alice")

	w := f.do(t, "POST", "/api/registers/1/sales", token,
		saleBody("10.00", SaleLine{ProductID: "milk", Quantity: 3}, SaleLine{ProductID: "soap", Quantity: 1}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var receipt domain.Receipt
	require.NoError(t, json.NewDecoder(w.Body).Decode(&receipt))
	assert.Equal(t, int64(1), receipt.Number)
	assert.Equal(t, "alice", receipt.CashierID)
	assert.Equal(t, 1, receipt.RegisterID)
	assert.True(t, receipt.Total.Equal(decimal.RequireFromString("7.50")), "total %s", receipt.Total)
	assert.True(t, receipt.Change().Equal(decimal.RequireFromString("2.50")))
	require.Len(t, receipt.Lines(), 2)
	assert.Equal(t, "milk", receipt.Lines()[0].ProductID)

	// stock view reflects the sale
	w = f.do(t, "GET", "/api/inventory/milk", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var level inventory.StockLevel
	require.NoError(t, json.NewDecoder(w.Body).Decode(&level))
	assert.Equal(t, 7, level.Quantity)

	// the receipt was persisted
	w = f.do(t, "GET", "/api/receipts/"+receipt.ID.String(), "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// and counted
	w = f.do(t, "GET", "/api/analytics/summary", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary SummaryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Equal(t, int64(1), summary.Transactions)
	assert.True(t, summary.Revenue.Equal(decimal.RequireFromString("7.50")))
	assert.True(t, summary.CommittedRevenue.Equal(decimal.RequireFromString("7.50")))

	// after signing out the register can no longer sell
	w = f.do(t, "POST", "/api/registers/1/sign-out", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = f.do(t, "POST", "/api/registers/1/sales", token, saleBody("10.00", SaleLine{ProductID: "milk", Quantity: 1}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, string(domain.CodeUnassignedRegister), decodeError(t, w).Code)
}

func TestSaleHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
		wantCode   string
		wantStage  string
	}{
		{
			name:       "insufficient stock",
			body:       saleBody("100.00", SaleLine{ProductID: "milk", Quantity: 1}, SaleLine{ProductID: "soap", Quantity: 4}),
			wantStatus: http.StatusConflict,
			wantCode:   string(domain.CodeInsufficientStock),
			wantStage:  "stock_reserving",
		},
		{
			name:       "unknown product",
			body:       saleBody("100.00", SaleLine{ProductID: "bread", Quantity: 1}),
			wantStatus: http.StatusNotFound,
			wantCode:   string(domain.CodeUnknownProduct),
			wantStage:  "pricing",
		},
		{
			name:       "underpayment",
			body:       saleBody("5.99", SaleLine{ProductID: "milk", Quantity: 3}),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(domain.CodeInsufficientPayment),
			wantStage:  "pricing",
		},
		{
			name:       "no items",
			body:       saleBody("5.00"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "zero quantity",
			body:       saleBody("5.00", SaleLine{ProductID: "milk", Quantity: 0}),
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "malformed tender",
			body:       map[string]interface{}{"items": []SaleLine{{ProductID: "milk", Quantity: 1}}, "tendered": 5},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStoreFixture(t)
			token := f.signIn(t, "1", "alice")

			w := f.do(t, "POST", "/api/registers/1/sales", token, tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			detail := decodeError(t, w)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, detail.Code)
			}
			if tt.wantStage != "" {
				assert.Equal(t, tt.wantStage, detail.Details["stage"])
			}

			// a failed sale leaves stock untouched
			milk, err := f.ledger.Query("milk")
			require.NoError(t, err)
			soap, err := f.ledger.Query("soap")
			require.NoError(t, err)
			assert.Equal(t, 10, milk)
			assert.Equal(t, 3, soap)
		})
	}
}

func TestSaleHandler_TokenForAnotherRegisterIsForbidden(t *testing.T) {
	f := newStoreFixture(t)
	token := f.signIn(t, "1", "alice")

	w := f.do(t, "POST", "/api/registers/2/sales", token, saleBody("10.00", SaleLine{ProductID: "milk", Quantity: 1}))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, "POST", "/api/registers/1/sales", "", saleBody("10.00", SaleLine{ProductID: "milk", Quantity: 1}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// Feature: retail-pos, Property 26: Repeated lines are merged into one debit
func TestProperty_RepeatedLinesDebitTheirSum(t *testing.T) {
	f := newStoreFixture(t)
	token := f.signIn(t, "1", "alice")

	properties := gopter.NewProperties(nil)

	properties.Property("stock falls by the sum of the repeated quantities", prop.ForAll(
		func(first, second int) bool {
			if _, err := f.inventory.Restock(context.Background(), "milk", first+second); err != nil {
				return false
			}
			before, _ := f.ledger.Query("milk")

			w := f.do(t, "POST", "/api/registers/1/sales", token, saleBody("10000.00",
				SaleLine{ProductID: "milk", Quantity: first},
				SaleLine{ProductID: "milk", Quantity: second},
			))
			if w.Code != http.StatusCreated {
				return false
			}

			var receipt domain.Receipt
			if err := json.NewDecoder(w.Body).Decode(&receipt); err != nil {
				return false
			}
			after, _ := f.ledger.Query("milk")
			lines := receipt.Lines()
			return before-after == first+second && len(lines) == 1 && lines[0].Quantity == first+second
		},
		gen.IntRange(1, 50),
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestSaleHandler_RepeatedLinesTooLarge(t *testing.T) {
	f := newStoreFixture(t)
	token := f.signIn(t, "1", "alice")

	w := f.do(t, "POST", "/api/registers/1/sales", token, saleBody("10000.00",
		SaleLine{ProductID: "milk", Quantity: math.MaxInt},
		SaleLine{ProductID: "milk", Quantity: math.MaxInt},
		SaleLine{ProductID: "milk", Quantity: 3},
	))
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, string(domain.CodeInvalidQuantity), decodeError(t, w).Code)

	stock, err := f.ledger.Query("milk")
	require.NoError(t, err)
	assert.Equal(t, 10, stock, "a rejected sale leaves stock alone")
	assert.Empty(t, f.tracker.Summary().TopProducts, "nothing is rung up")
}

func TestMergeLines(t *testing.T) {
	items, err := mergeLines([]SaleLine{
		{ProductID: "milk", Quantity: 2},
		{ProductID: "soap", Quantity: 1},
		{ProductID: "milk", Quantity: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"milk": 7, "soap": 1}, items)

	_, err = mergeLines([]SaleLine{
		{ProductID: "milk", Quantity: math.MaxInt},
		{ProductID: "milk", Quantity: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestAnalyticsHandler_Limits(t *testing.T) {
	f := newStoreFixture(t)
	token := f.signIn(t, "1", "alice")

	w := f.do(t, "POST", "/api/registers/1/sales", token,
		saleBody("20.00", SaleLine{ProductID: "milk", Quantity: 1}, SaleLine{ProductID: "soap", Quantity: 1}))
	require.Equal(t, http.StatusCreated, w.Code)

	w = f.do(t, "GET", "/api/analytics/summary?products=1&cashiers=0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary SummaryResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&summary))
	assert.Len(t, summary.TopProducts, 1)
	assert.Empty(t, summary.TopCashiers)
	assert.True(t, summary.Expenses.IsPositive(), "salaries and deliveries are booked")

	w = f.do(t, "GET", "/api/analytics/summary?products=-1", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = f.do(t, "GET", "/api/analytics/summary?cashiers=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

var _ SummaryProvider = (*analytics.Tracker)(nil)
