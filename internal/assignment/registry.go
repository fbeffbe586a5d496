// Package assignment maintains the one-to-one binding between cashiers and registers.
package assignment

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"retail-pos/internal/domain"

	"go.uber.org/zap"
)

// Registry holds the cashier <-> register bijection as two lookup tables.
//
// Each side is installed with its own compare-and-swap. A binding exists only
// while both halves agree, so a half-installed assign in flight is never
// reported by the lookups.
type Registry struct {
	byCashier  sync.Map // cashier id -> register id
	byRegister sync.Map // register id -> cashier id

	logger *zap.Logger
}

// NewRegistry creates an empty registry
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{logger: logger.Named("assignment")}
}

// Assign binds cashierID to registerID. It fails with ErrAlreadyAssigned,
// leaving the registry unchanged, if either side already has a binding.
func (r *Registry) Assign(cashierID string, registerID int) error {
	if strings.TrimSpace(cashierID) == "" {
		return fmt.Errorf("%w: cashier id is required", domain.ErrInvalidParameter)
	}
	if registerID <= 0 {
		return fmt.Errorf("%w: register id must be positive", domain.ErrInvalidParameter)
	}

	if _, loaded := r.byCashier.LoadOrStore(cashierID, registerID); loaded {
		return fmt.Errorf("%w: cashier %s", domain.ErrAlreadyAssigned, cashierID)
	}
	if _, loaded := r.byRegister.LoadOrStore(registerID, cashierID); loaded {
		r.byCashier.CompareAndDelete(cashierID, registerID)
		return fmt.Errorf("%w: register %d", domain.ErrAlreadyAssigned, registerID)
	}

	r.logger.Info("Cashier assigned to register",
		zap.String("cashier_id", cashierID),
		zap.Int("register_id", registerID),
	)
	return nil
}

// UnassignCashier removes the binding held by cashierID
func (r *Registry) UnassignCashier(cashierID string) error {
	registerID, ok := r.RegisterOf(cashierID)
	if !ok {
		return fmt.Errorf("%w: cashier %s", domain.ErrNotAssigned, cashierID)
	}
	return r.release(cashierID, registerID)
}

// UnassignRegister removes the binding held by registerID
func (r *Registry) UnassignRegister(registerID int) error {
	cashierID, ok := r.CashierOf(registerID)
	if !ok {
		return fmt.Errorf("%w: register %d", domain.ErrNotAssigned, registerID)
	}
	return r.release(cashierID, registerID)
}

// release drops the register half first; that CAS is the point at which the
// binding disappears, and only one concurrent releaser can win it.
func (r *Registry) release(cashierID string, registerID int) error {
	if !r.byRegister.CompareAndDelete(registerID, cashierID) {
		return fmt.Errorf("%w: register %d", domain.ErrNotAssigned, registerID)
	}
	r.byCashier.CompareAndDelete(cashierID, registerID)

	r.logger.Info("Cashier unassigned from register",
		zap.String("cashier_id", cashierID),
		zap.Int("register_id", registerID),
	)
	return nil
}

// CashierOf returns the cashier bound to registerID, if any
func (r *Registry) CashierOf(registerID int) (string, bool) {
	v, ok := r.byRegister.Load(registerID)
	if !ok {
		return "", false
	}
	cashierID := v.(string)
	back, ok := r.byCashier.Load(cashierID)
	if !ok || back.(int) != registerID {
		return "", false
	}
	return cashierID, true
}

// RegisterOf returns the register cashierID is bound to, if any
func (r *Registry) RegisterOf(cashierID string) (int, bool) {
	v, ok := r.byCashier.Load(cashierID)
	if !ok {
		return 0, false
	}
	registerID := v.(int)
	back, ok := r.byRegister.Load(registerID)
	if !ok || back.(string) != cashierID {
		return 0, false
	}
	return registerID, true
}

// Assignments returns the complete bindings, sorted by register id
func (r *Registry) Assignments() []domain.Assignment {
	var out []domain.Assignment
	r.byRegister.Range(func(key, _ any) bool {
		registerID := key.(int)
		if cashierID, ok := r.CashierOf(registerID); ok {
			out = append(out, domain.Assignment{CashierID: cashierID, RegisterID: registerID})
		}
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].RegisterID < out[j].RegisterID })
	return out
}
