package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one product line on a receipt
type LineItem struct {
	ProductID string          `json:"product_id" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// Subtotal returns quantity times unit price
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Receipt is the record of one completed sale. Receipts are built once by
// NewReceipt and treated as values afterwards; Lines returns a copy.
type Receipt struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	Number     int64           `json:"number" db:"number"`
	CashierID  string          `json:"cashier_id" db:"cashier_id"`
	RegisterID int             `json:"register_id" db:"register_id"`
	Total      decimal.Decimal `json:"total" db:"total"`
	Tendered   decimal.Decimal `json:"tendered" db:"tendered"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	lines      []LineItem
}

// NewReceipt validates its inputs and builds a receipt with lines sorted by product id.
func NewReceipt(number int64, cashierID string, registerID int, lines []LineItem, total, tendered decimal.Decimal, createdAt time.Time) (*Receipt, error) {
	if number <= 0 {
		return nil, fmt.Errorf("%w: receipt number must be positive", ErrInvalidParameter)
	}
	if cashierID == "" {
		return nil, fmt.Errorf("%w: cashier is required", ErrInvalidParameter)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyItems
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("%w: total cannot be negative", ErrInvalidParameter)
	}

	copied := make([]LineItem, len(lines))
	copy(copied, lines)
	for _, l := range copied {
		if l.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, l.ProductID)
		}
	}
	sort.Slice(copied, func(i, j int) bool { return copied[i].ProductID < copied[j].ProductID })

	return &Receipt{
		ID:         uuid.New(),
		Number:     number,
		CashierID:  cashierID,
		RegisterID: registerID,
		Total:      total,
		Tendered:   tendered,
		CreatedAt:  createdAt,
		lines:      copied,
	}, nil
}

// Lines returns a copy of the receipt's line items
func (r *Receipt) Lines() []LineItem {
	out := make([]LineItem, len(r.lines))
	copy(out, r.lines)
	return out
}

// Change returns the amount handed back to the customer
func (r *Receipt) Change() decimal.Decimal {
	return r.Tendered.Sub(r.Total)
}

// Quantities returns product id -> quantity for the receipt's lines
func (r *Receipt) Quantities() map[string]int {
	out := make(map[string]int, len(r.lines))
	for _, l := range r.lines {
		out[l.ProductID] = l.Quantity
	}
	return out
}

// RestoreReceipt rebuilds a receipt read back from storage
func RestoreReceipt(r Receipt, lines []LineItem) *Receipt {
	r.lines = make([]LineItem, len(lines))
	copy(r.lines, lines)
	sort.Slice(r.lines, func(i, j int) bool { return r.lines[i].ProductID < r.lines[j].ProductID })
	return &r
}

type receiptJSON struct {
	ID         uuid.UUID       `json:"id"`
	Number     int64           `json:"number"`
	CashierID  string          `json:"cashier_id"`
	RegisterID int             `json:"register_id"`
	Lines      []LineItem      `json:"lines"`
	Total      decimal.Decimal `json:"total"`
	Tendered   decimal.Decimal `json:"tendered"`
	Change     decimal.Decimal `json:"change"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (r *Receipt) MarshalJSON() ([]byte, error) {
	return json.Marshal(receiptJSON{
		ID:         r.ID,
		Number:     r.Number,
		CashierID:  r.CashierID,
		RegisterID: r.RegisterID,
		Lines:      r.lines,
		Total:      r.Total,
		Tendered:   r.Tendered,
		Change:     r.Change(),
		CreatedAt:  r.CreatedAt,
	})
}

func (r *Receipt) UnmarshalJSON(data []byte) error {
	var v receiptJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*r = *RestoreReceipt(Receipt{
		ID:         v.ID,
		Number:     v.Number,
		CashierID:  v.CashierID,
		RegisterID: v.RegisterID,
		Total:      v.Total,
		Tendered:   v.Tendered,
		CreatedAt:  v.CreatedAt,
	}, v.Lines)
	return nil
}
