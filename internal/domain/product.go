package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category distinguishes perishable goods from everything else
type Category string

const (
	CategoryFood    Category = "food"
	CategoryNonFood Category = "non_food"
)

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return c == CategoryFood || c == CategoryNonFood
}

// Product represents a sellable item in the store catalog.
// Stock levels are owned by the inventory ledger and are never stored here.
type Product struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Category     Category        `json:"category" db:"category"`
	DeliveryCost decimal.Decimal `json:"delivery_cost" db:"delivery_cost"`
	ExpiresOn    *time.Time      `json:"expires_on,omitempty" db:"expires_on"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
}

// StockSettings holds the initial ledger configuration of a catalog product
type StockSettings struct {
	InitialStock    int `json:"initial_stock" db:"initial_stock"`
	ReorderPoint    int `json:"reorder_point" db:"reorder_point"`
	ReorderQuantity int `json:"reorder_quantity" db:"reorder_quantity"`
}

// CatalogItem is a product together with its stock settings, as loaded at setup time
type CatalogItem struct {
	Product
	StockSettings
}

// IsExpired reports whether the product is past its expiration date on the day of now.
// Products without an expiration date never expire.
func (p Product) IsExpired(now time.Time) bool {
	if p.ExpiresOn == nil {
		return false
	}
	return calendarDay(now, now.Location()).After(calendarDay(*p.ExpiresOn, now.Location()))
}

// IsNearExpiration reports whether the product expires after today but
// within warningDays of now. The expiration day itself is not near expiry.
func (p Product) IsNearExpiration(now time.Time, warningDays int) bool {
	if p.ExpiresOn == nil || warningDays <= 0 {
		return false
	}
	today := calendarDay(now, now.Location())
	expires := calendarDay(*p.ExpiresOn, now.Location())
	if !today.Before(expires) {
		return false
	}
	return !expires.After(today.AddDate(0, 0, warningDays))
}

// calendarDay keeps the date t carries and places its midnight in loc, so
// an expiration date is compared as a date whatever zone it was stored in.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
