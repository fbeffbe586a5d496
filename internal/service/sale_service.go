package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"retail-pos/internal/domain"
	"retail-pos/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SaleStage names the step of a sale in which it stopped
type SaleStage string

const (
	StageValidating     SaleStage = "validating"
	StagePricing        SaleStage = "pricing"
	StageStockReserving SaleStage = "stock_reserving"
	StageCommitted      SaleStage = "committed"
)

// SaleError reports a failed sale together with the stage it failed in.
// It unwraps to one of the domain error kinds.
type SaleError struct {
	Stage SaleStage
	Err   error
}

func (e *SaleError) Error() string {
	return fmt.Sprintf("sale failed during %s: %v", e.Stage, e.Err)
}

func (e *SaleError) Unwrap() error {
	return e.Err
}

// StockLedger is the part of the inventory ledger a sale needs
type StockLedger interface {
	Product(productID string) (domain.Product, error)
	Query(productID string) (int, error)
	Adjust(productID string, delta int) (int, error)
}

// CashierLookup resolves the cashier working a register
type CashierLookup interface {
	CashierOf(registerID int) (string, bool)
}

// ReceiptNumbers issues receipt numbers
type ReceiptNumbers interface {
	Next() int64
}

// SaleRecorder receives committed receipts; it must not block
type SaleRecorder interface {
	RecordSale(receipt *domain.Receipt)
}

// SaleService defines the interface for processing sales
type SaleService interface {
	ProcessSale(ctx context.Context, registerID int, items map[string]int, tendered decimal.Decimal) (*domain.Receipt, error)
	Revenue() decimal.Decimal
}

type saleService struct {
	ledger      StockLedger
	assignments CashierLookup
	numbers     ReceiptNumbers
	receipts    repository.ReceiptStore
	recorder    SaleRecorder
	pricing     domain.PricingPolicy
	now         func() time.Time
	logger      *zap.Logger

	revenueCents atomic.Int64
}

// SaleOption configures a SaleService
type SaleOption func(*saleService)

// WithSaleClock overrides the clock used for pricing and receipt timestamps
func WithSaleClock(now func() time.Time) SaleOption {
	return func(s *saleService) { s.now = now }
}

// NewSaleService creates a new instance of SaleService. recorder may be nil.
func NewSaleService(
	ledger StockLedger,
	assignments CashierLookup,
	numbers ReceiptNumbers,
	receipts repository.ReceiptStore,
	recorder SaleRecorder,
	pricing domain.PricingPolicy,
	logger *zap.Logger,
	opts ...SaleOption,
) SaleService {
	s := &saleService{
		ledger:      ledger,
		assignments: assignments,
		numbers:     numbers,
		receipts:    receipts,
		recorder:    recorder,
		pricing:     pricing,
		now:         time.Now,
		logger:      logger.Named("sale"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessSale runs one sale from validation to commit. On any failure the
// ledger is left at its pre-sale quantities for every product in items.
//
// A receipt store failure is detected only after stock has been debited and a
// receipt number issued; the debits are then credited back. Between those two
// points other callers can observe the debited stock.
func (s *saleService) ProcessSale(ctx context.Context, registerID int, items map[string]int, tendered decimal.Decimal) (*domain.Receipt, error) {
	log := s.logger.With(zap.Int("register_id", registerID))

	// Validating
	if len(items) == 0 {
		return nil, s.fail(log, StageValidating, domain.ErrEmptyItems)
	}
	if tendered.IsNegative() {
		return nil, s.fail(log, StageValidating, domain.ErrInvalidPayment)
	}
	cashierID, ok := s.assignments.CashierOf(registerID)
	if !ok {
		return nil, s.fail(log, StageValidating, fmt.Errorf("%w: register %d", domain.ErrUnassignedRegister, registerID))
	}
	log = log.With(zap.String("cashier_id", cashierID))

	// Pricing
	now := s.now()
	lines, total, err := s.price(items, now)
	if err != nil {
		return nil, s.fail(log, StagePricing, err)
	}
	if tendered.LessThan(total) {
		return nil, s.fail(log, StagePricing, fmt.Errorf("%w: total %s, tendered %s",
			domain.ErrInsufficientPayment, total.StringFixed(2), tendered.StringFixed(2)))
	}

	// StockReserving
	if err := s.checkAvailability(lines); err != nil {
		return nil, s.fail(log, StageStockReserving, err)
	}
	debited, err := s.debit(lines)
	if err != nil {
		s.creditBack(log, debited)
		return nil, s.fail(log, StageStockReserving, err)
	}

	// Committed
	receipt, err := domain.NewReceipt(s.numbers.Next(), cashierID, registerID, lines, total, tendered, now)
	if err != nil {
		s.creditBack(log, debited)
		return nil, s.fail(log, StageCommitted, err)
	}
	if err := s.receipts.Store(context.WithoutCancel(ctx), receipt); err != nil {
		log.Error("Receipt persistence failed, crediting stock back",
			zap.Int64("receipt_number", receipt.Number),
			zap.Error(err),
		)
		s.creditBack(log, debited)
		return nil, s.fail(log, StageCommitted, fmt.Errorf("%w: %v", domain.ErrPersistenceFailure, err))
	}

	s.revenueCents.Add(total.Shift(2).IntPart())
	if s.recorder != nil {
		s.recorder.RecordSale(receipt)
	}

	log.Info("Sale committed",
		zap.Int64("receipt_number", receipt.Number),
		zap.String("total", total.StringFixed(2)),
		zap.Int("lines", len(lines)),
	)
	return receipt, nil
}

// Revenue returns the running total of committed sales
func (s *saleService) Revenue() decimal.Decimal {
	return decimal.New(s.revenueCents.Load(), -2)
}

// price builds the receipt lines in ascending product id order
func (s *saleService) price(items map[string]int, now time.Time) ([]domain.LineItem, decimal.Decimal, error) {
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]domain.LineItem, 0, len(ids))
	total := decimal.Zero
	for _, id := range ids {
		qty := items[id]
		if qty <= 0 {
			return nil, decimal.Zero, fmt.Errorf("%w: product %s quantity %d", domain.ErrInvalidQuantity, id, qty)
		}
		product, err := s.ledger.Product(id)
		if err != nil {
			return nil, decimal.Zero, err
		}
		unit, err := s.pricing.UnitPrice(product, now)
		if err != nil {
			return nil, decimal.Zero, err
		}
		line := domain.LineItem{ProductID: id, Quantity: qty, UnitPrice: unit}
		lines = append(lines, line)
		total = total.Add(line.Subtotal())
	}
	return lines, total.Round(2), nil
}

// checkAvailability is a read-only pass that fails on the first under-stocked product
func (s *saleService) checkAvailability(lines []domain.LineItem) error {
	for _, line := range lines {
		onHand, err := s.ledger.Query(line.ProductID)
		if err != nil {
			return err
		}
		if onHand < line.Quantity {
			return fmt.Errorf("%w: product %s has %d, requested %d",
				domain.ErrInsufficientStock, line.ProductID, onHand, line.Quantity)
		}
	}
	return nil
}

// debit applies each line in order and returns the lines actually debited
func (s *saleService) debit(lines []domain.LineItem) ([]domain.LineItem, error) {
	debited := make([]domain.LineItem, 0, len(lines))
	for _, line := range lines {
		if _, err := s.ledger.Adjust(line.ProductID, -line.Quantity); err != nil {
			return debited, fmt.Errorf("%w: product %s: %v", domain.ErrStockConflict, line.ProductID, err)
		}
		debited = append(debited, line)
	}
	return debited, nil
}

// creditBack restores every debited quantity. A positive adjustment can only
// fail under contention, so it is retried until it lands.
func (s *saleService) creditBack(log *zap.Logger, debited []domain.LineItem) {
	for _, line := range debited {
		for {
			_, err := s.ledger.Adjust(line.ProductID, line.Quantity)
			if err == nil {
				break
			}
			if !errors.Is(err, domain.ErrStockConflict) {
				log.Error("Failed to credit stock back",
					zap.String("product_id", line.ProductID),
					zap.Int("quantity", line.Quantity),
					zap.Error(err),
				)
				break
			}
		}
	}
	if len(debited) > 0 {
		log.Warn("Sale rolled back", zap.Int("lines", len(debited)))
	}
}

func (s *saleService) fail(log *zap.Logger, stage SaleStage, err error) error {
	log.Debug("Sale failed", zap.String("stage", string(stage)), zap.Error(err))
	return &SaleError{Stage: stage, Err: err}
}
