package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Cashier represents an employee who can operate a register
type Cashier struct {
	ID            string          `json:"id" db:"id"`
	Name          string          `json:"name" db:"name"`
	MonthlySalary decimal.Decimal `json:"monthly_salary" db:"monthly_salary"`
	PINHash       string          `json:"-" db:"pin_hash"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}

// Register represents a physical cash register
type Register struct {
	ID        int       `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Assignment binds a cashier to a register
type Assignment struct {
	CashierID  string `json:"cashier_id"`
	RegisterID int    `json:"register_id"`
}
