package domain

import "errors"

var (
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrDuplicateProduct    = errors.New("product already registered")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrAlreadyAssigned     = errors.New("already assigned")
	ErrNotAssigned         = errors.New("not assigned")
	ErrEmptyItems          = errors.New("sale has no items")
	ErrInvalidQuantity     = errors.New("quantity must be greater than 0")
	ErrInvalidPayment      = errors.New("tendered amount cannot be negative")
	ErrUnassignedRegister  = errors.New("no cashier assigned to register")
	ErrExpiredProduct      = errors.New("product is expired")
	ErrInsufficientPayment = errors.New("tendered amount is less than the sale total")
	ErrStockConflict       = errors.New("stock changed concurrently")
	ErrPersistenceFailure  = errors.New("receipt persistence failed")
)

// Code is a machine-readable error code returned to API clients.
type Code string

const (
	CodeUnknown             Code = "UNKNOWN"
	CodeInvalidParameter    Code = "INVALID_PARAMETER"
	CodeDuplicateProduct    Code = "DUPLICATE_PRODUCT"
	CodeUnknownProduct      Code = "UNKNOWN_PRODUCT"
	CodeInsufficientStock   Code = "INSUFFICIENT_STOCK"
	CodeAlreadyAssigned     Code = "ALREADY_ASSIGNED"
	CodeNotAssigned         Code = "NOT_ASSIGNED"
	CodeEmptyItems          Code = "EMPTY_ITEMS"
	CodeInvalidQuantity     Code = "INVALID_QUANTITY"
	CodeInvalidPayment      Code = "INVALID_PAYMENT"
	CodeUnassignedRegister  Code = "UNASSIGNED_REGISTER"
	CodeExpiredProduct      Code = "EXPIRED_PRODUCT"
	CodeInsufficientPayment Code = "INSUFFICIENT_PAYMENT"
	CodeStockConflict       Code = "STOCK_CONFLICT"
	CodePersistenceFailure  Code = "PERSISTENCE_FAILURE"
)

var codes = []struct {
	err  error
	code Code
}{
	{ErrInvalidParameter, CodeInvalidParameter},
	{ErrDuplicateProduct, CodeDuplicateProduct},
	{ErrUnknownProduct, CodeUnknownProduct},
	{ErrInsufficientStock, CodeInsufficientStock},
	{ErrAlreadyAssigned, CodeAlreadyAssigned},
	{ErrNotAssigned, CodeNotAssigned},
	{ErrEmptyItems, CodeEmptyItems},
	{ErrInvalidQuantity, CodeInvalidQuantity},
	{ErrInvalidPayment, CodeInvalidPayment},
	{ErrUnassignedRegister, CodeUnassignedRegister},
	{ErrExpiredProduct, CodeExpiredProduct},
	{ErrInsufficientPayment, CodeInsufficientPayment},
	{ErrStockConflict, CodeStockConflict},
	{ErrPersistenceFailure, CodePersistenceFailure},
}

// CodeOf returns the code of the first known error kind found in err's chain.
func CodeOf(err error) Code {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
