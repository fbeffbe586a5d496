package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PricingPolicy turns delivery costs into selling prices
type PricingPolicy struct {
	FoodMarkup            decimal.Decimal
	NonFoodMarkup         decimal.Decimal
	ExpirationWarningDays int
	NearExpiryDiscount    decimal.Decimal
}

// DefaultPricingPolicy mirrors the store defaults: 20% food markup, 15% non-food
// markup and a 20% discount during the last 7 days before expiration.
func DefaultPricingPolicy() PricingPolicy {
	return PricingPolicy{
		FoodMarkup:            decimal.NewFromFloat(0.20),
		NonFoodMarkup:         decimal.NewFromFloat(0.15),
		ExpirationWarningDays: 7,
		NearExpiryDiscount:    decimal.NewFromFloat(0.20),
	}
}

// UnitPrice returns the selling price of one unit of p at time now, rounded to cents.
func (pp PricingPolicy) UnitPrice(p Product, now time.Time) (decimal.Decimal, error) {
	if p.IsExpired(now) {
		return decimal.Zero, fmt.Errorf("%w: product %s", ErrExpiredProduct, p.ID)
	}

	markup := pp.NonFoodMarkup
	if p.Category == CategoryFood {
		markup = pp.FoodMarkup
	}
	price := p.DeliveryCost.Mul(decimal.NewFromInt(1).Add(markup))

	if p.IsNearExpiration(now, pp.ExpirationWarningDays) {
		price = price.Mul(decimal.NewFromInt(1).Sub(pp.NearExpiryDiscount))
	}
	return price.Round(2), nil
}
