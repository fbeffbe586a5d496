package analytics

import (
	"context"
	"fmt"

	"retail-pos/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// RedisRecorder mirrors sales counters into Redis so they survive restarts
// and can be shared with other reporting tools.
type RedisRecorder struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisRecorder creates a recorder writing keys under keyPrefix
func NewRedisRecorder(client *redis.Client, keyPrefix string) *RedisRecorder {
	if keyPrefix == "" {
		keyPrefix = "pos"
	}
	return &RedisRecorder{client: client, keyPrefix: keyPrefix}
}

func (r *RedisRecorder) key(name string) string {
	return fmt.Sprintf("%s:%s", r.keyPrefix, name)
}

// RecordSale increments revenue, transaction, product unit and cashier counters in one pipeline
func (r *RedisRecorder) RecordSale(ctx context.Context, receipt *domain.Receipt) error {
	if receipt == nil {
		return fmt.Errorf("receipt is required")
	}
	total, _ := receipt.Total.Float64()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.IncrByFloat(ctx, r.key("revenue"), total)
		pipe.Incr(ctx, r.key("transactions"))
		for _, line := range receipt.Lines() {
			pipe.HIncrBy(ctx, r.key("product_units"), line.ProductID, int64(line.Quantity))
		}
		pipe.ZIncrBy(ctx, r.key("cashier_revenue"), total, receipt.CashierID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to record sale in redis: %w", err)
	}
	return nil
}

// RecordExpense increments the expense counter
func (r *RedisRecorder) RecordExpense(ctx context.Context, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("expense amount cannot be negative: %s", amount)
	}
	value, _ := amount.Float64()
	if err := r.client.IncrByFloat(ctx, r.key("expenses"), value).Err(); err != nil {
		return fmt.Errorf("failed to record expense in redis: %w", err)
	}
	return nil
}

// Revenue reads the revenue counter back
func (r *RedisRecorder) Revenue(ctx context.Context) (decimal.Decimal, error) {
	return r.readDecimal(ctx, "revenue")
}

// Expenses reads the expense counter back
func (r *RedisRecorder) Expenses(ctx context.Context) (decimal.Decimal, error) {
	return r.readDecimal(ctx, "expenses")
}

// ProductUnits reads the units sold of one product
func (r *RedisRecorder) ProductUnits(ctx context.Context, productID string) (int64, error) {
	n, err := r.client.HGet(ctx, r.key("product_units"), productID).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

func (r *RedisRecorder) readDecimal(ctx context.Context, name string) (decimal.Decimal, error) {
	raw, err := r.client.Get(ctx, r.key(name)).Result()
	if err == redis.Nil {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return decimal.NewFromString(raw)
}
