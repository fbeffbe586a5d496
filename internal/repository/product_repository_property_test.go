package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"retail-pos/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
)

// Feature: retail-pos, Property 12: Catalog registration preserves attributes
func TestProperty_CatalogCreationPreservesAttributes(t *testing.T) {
	requirePostgres(t)
	productRepo := NewProductRepository(testDB)

	properties := gopter.NewProperties(nil)

	properties.Property("creating and retrieving a catalog item preserves all attributes", prop.ForAll(
		func(name string, food bool, costCents int64, stock int, reorderPoint int, expiresInDays int) bool {
			ctx := context.Background()

			category := domain.CategoryNonFood
			var expiresOn *time.Time
			if food {
				category = domain.CategoryFood
				d := time.Now().UTC().AddDate(0, 0, expiresInDays).Truncate(24 * time.Hour)
				expiresOn = &d
			}

			item := &domain.CatalogItem{
				Product: domain.Product{
					ID:           "sku-" + uuid.NewString(),
					Name:         name,
					Category:     category,
					DeliveryCost: decimal.New(costCents, -2),
					ExpiresOn:    expiresOn,
					CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
				},
				StockSettings: domain.StockSettings{
					InitialStock:    stock,
					ReorderPoint:    reorderPoint,
					ReorderQuantity: reorderPoint + 10,
				},
			}

			if err := productRepo.Create(ctx, item); err != nil {
				t.Logf("FAIL: Failed to create product: %v", err)
				return false
			}
			defer productRepo.Delete(ctx, item.ID)

			retrieved, err := productRepo.FindByID(ctx, item.ID)
			if err != nil {
				t.Logf("FAIL: Failed to retrieve product: %v", err)
				return false
			}

			if retrieved.Name != item.Name || retrieved.Category != item.Category {
				t.Logf("FAIL: Name/category mismatch. Expected %s/%s, got %s/%s",
					item.Name, item.Category, retrieved.Name, retrieved.Category)
				return false
			}

			if !retrieved.DeliveryCost.Equal(item.DeliveryCost) {
				t.Logf("FAIL: Delivery cost mismatch. Expected %s, got %s", item.DeliveryCost, retrieved.DeliveryCost)
				return false
			}

			if retrieved.StockSettings != item.StockSettings {
				t.Logf("FAIL: Stock settings mismatch. Expected %+v, got %+v", item.StockSettings, retrieved.StockSettings)
				return false
			}

			if (retrieved.ExpiresOn == nil) != (item.ExpiresOn == nil) {
				t.Logf("FAIL: Expiration presence mismatch")
				return false
			}
			if item.ExpiresOn != nil && !retrieved.ExpiresOn.Equal(*item.ExpiresOn) {
				t.Logf("FAIL: Expiration mismatch. Expected %s, got %s", item.ExpiresOn, retrieved.ExpiresOn)
				return false
			}

			return true
		},
		gen.RegexMatch(`[A-Za-z][A-Za-z0-9 ]{2,40}`), // name
		gen.Bool(),                                   // food
		gen.Int64Range(1, 999999),                    // delivery cost in cents
		gen.IntRange(0, 1000),                        // initial stock
		gen.IntRange(0, 100),                         // reorder point
		gen.IntRange(-30, 365),                       // expiration offset
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProductRepository_DuplicateAndMissing(t *testing.T) {
	requirePostgres(t)
	ctx := context.Background()
	repo := NewProductRepository(testDB)

	item := &domain.CatalogItem{
		Product: domain.Product{
			ID:           "dup-" + uuid.NewString(),
			Name:         "Soap",
			Category:     domain.CategoryNonFood,
			DeliveryCost: decimal.RequireFromString("1.50"),
			CreatedAt:    time.Now().UTC(),
		},
		StockSettings: domain.StockSettings{InitialStock: 10, ReorderPoint: 2, ReorderQuantity: 20},
	}
	if err := repo.Create(ctx, item); err != nil {
		t.Fatalf("Failed to create product: %v", err)
	}
	defer repo.Delete(ctx, item.ID)

	if err := repo.Create(ctx, item); !errors.Is(err, ErrProductAlreadyExists) {
		t.Errorf("Expected ErrProductAlreadyExists, got %v", err)
	}
	if _, err := repo.FindByID(ctx, "missing-"+uuid.NewString()); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "missing-"+uuid.NewString()); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Expected ErrProductNotFound on delete, got %v", err)
	}

	items, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list products: %v", err)
	}
	found := false
	for _, it := range items {
		if it.ID == item.ID {
			found = true
		}
	}
	if !found {
		t.Error("Created product missing from List")
	}
}
