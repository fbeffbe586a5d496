package analytics

import (
	"context"
	"sync"
	"time"

	"retail-pos/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const recordTimeout = 5 * time.Second

type event struct {
	receipt *domain.Receipt
	expense decimal.Decimal
}

// Dispatcher forwards events to a set of recorders on a background goroutine.
// Callers never block on a recorder and never see its errors; failures are
// logged. When the queue is full the event is dropped and logged.
type Dispatcher struct {
	recorders []Recorder
	events    chan event
	logger    *zap.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

// NewDispatcher starts a dispatcher with a queue of the given size
func NewDispatcher(logger *zap.Logger, queueSize int, recorders ...Recorder) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	d := &Dispatcher{
		recorders: recorders,
		events:    make(chan event, queueSize),
		logger:    logger.Named("analytics"),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// RecordSale queues a committed receipt
func (d *Dispatcher) RecordSale(receipt *domain.Receipt) {
	d.enqueue(event{receipt: receipt})
}

// RecordExpense queues an expense
func (d *Dispatcher) RecordExpense(amount decimal.Decimal) {
	d.enqueue(event{expense: amount})
}

func (d *Dispatcher) enqueue(ev event) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("Analytics event dropped after close")
		return
	}
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("Analytics queue full, event dropped")
	}
}

// Close stops accepting events and waits for queued ones to be delivered
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.events)
		d.mu.Unlock()
	})
	d.wg.Wait()
}

func (d *Dispatcher) run() {
	defer d.wg.Done()
	for ev := range d.events {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev event) {
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	for _, r := range d.recorders {
		var err error
		if ev.receipt != nil {
			err = r.RecordSale(ctx, ev.receipt)
		} else {
			err = r.RecordExpense(ctx, ev.expense)
		}
		if err != nil {
			fields := []zap.Field{zap.Error(err)}
			if ev.receipt != nil {
				fields = append(fields, zap.Int64("receipt_number", ev.receipt.Number))
			}
			d.logger.Error("Failed to record analytics event", fields...)
		}
	}
}
