package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail-pos/internal/domain"
	"retail-pos/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for PIN hashing
	BcryptCost = 10

	// DefaultShiftExpiration bounds how long a register token stays valid
	DefaultShiftExpiration = 12 * time.Hour
)

var (
	ErrInvalidCredentials = errors.New("invalid cashier id or PIN")
	ErrInvalidToken       = errors.New("invalid token")
)

// ShiftRegistry is the part of the assignment registry a shift needs
type ShiftRegistry interface {
	Assign(cashierID string, registerID int) error
	UnassignRegister(registerID int) error
	CashierOf(registerID int) (string, bool)
	Assignments() []domain.Assignment
}

// ExpenseRecorder receives store expenses; it must not block
type ExpenseRecorder interface {
	RecordExpense(amount decimal.Decimal)
}

// ShiftService defines cashier sign-in and sign-out at registers
type ShiftService interface {
	HireCashier(ctx context.Context, id, name, pin string, monthlySalary decimal.Decimal) (*domain.Cashier, error)
	SignIn(ctx context.Context, registerID int, cashierID, pin string) (token string, expiresAt time.Time, err error)
	SignOut(ctx context.Context, registerID int, cashierID string) error
	ValidateToken(tokenString string) (*Claims, error)
	Assignments() []domain.Assignment
}

// Claims binds a token to one cashier working one register
type Claims struct {
	CashierID  string `json:"cashier_id"`
	RegisterID int    `json:"register_id"`
	jwt.RegisteredClaims
}

type shiftService struct {
	cashiers  repository.CashierRepository
	registers repository.RegisterRepository
	registry  ShiftRegistry
	expenses  ExpenseRecorder
	jwtSecret string
	expiry    time.Duration
	logger    *zap.Logger
}

// NewShiftService creates a new instance of ShiftService. expenses may be nil.
func NewShiftService(
	cashiers repository.CashierRepository,
	registers repository.RegisterRepository,
	registry ShiftRegistry,
	expenses ExpenseRecorder,
	jwtSecret string,
	expiry time.Duration,
	logger *zap.Logger,
) ShiftService {
	if expiry <= 0 {
		expiry = DefaultShiftExpiration
	}
	return &shiftService{
		cashiers:  cashiers,
		registers: registers,
		registry:  registry,
		expenses:  expenses,
		jwtSecret: jwtSecret,
		expiry:    expiry,
		logger:    logger.Named("shift"),
	}
}

// HireCashier stores a new cashier with a hashed PIN and books the salary as an expense
func (s *shiftService) HireCashier(ctx context.Context, id, name, pin string, monthlySalary decimal.Decimal) (*domain.Cashier, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: cashier id and name are required", domain.ErrInvalidParameter)
	}
	if !monthlySalary.IsPositive() {
		return nil, fmt.Errorf("%w: monthly salary must be positive", domain.ErrInvalidParameter)
	}
	if len(pin) < 4 {
		return nil, fmt.Errorf("%w: PIN must have at least 4 digits", domain.ErrInvalidParameter)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash PIN: %w", err)
	}

	cashier := &domain.Cashier{
		ID:            id,
		Name:          name,
		MonthlySalary: monthlySalary,
		PINHash:       string(hashed),
		CreatedAt:     time.Now(),
	}
	if err := s.cashiers.Create(ctx, cashier); err != nil {
		return nil, fmt.Errorf("failed to create cashier: %w", err)
	}

	if s.expenses != nil {
		s.expenses.RecordExpense(monthlySalary)
	}
	s.logger.Info("Cashier hired", zap.String("cashier_id", id))
	return cashier, nil
}

// SignIn checks the PIN, binds the cashier to the register and issues a token for that register
func (s *shiftService) SignIn(ctx context.Context, registerID int, cashierID, pin string) (string, time.Time, error) {
	if registerID <= 0 || cashierID == "" {
		return "", time.Time{}, fmt.Errorf("%w: register id and cashier id are required", domain.ErrInvalidParameter)
	}

	if _, err := s.registers.FindByID(ctx, registerID); err != nil {
		if errors.Is(err, repository.ErrRegisterNotFound) {
			return "", time.Time{}, fmt.Errorf("%w: unknown register %d", domain.ErrInvalidParameter, registerID)
		}
		return "", time.Time{}, fmt.Errorf("failed to find register: %w", err)
	}

	cashier, err := s.cashiers.FindByID(ctx, cashierID)
	if err != nil {
		if errors.Is(err, repository.ErrCashierNotFound) {
			return "", time.Time{}, ErrInvalidCredentials
		}
		return "", time.Time{}, fmt.Errorf("failed to find cashier: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cashier.PINHash), []byte(pin)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	if err := s.registry.Assign(cashierID, registerID); err != nil {
		return "", time.Time{}, err
	}

	token, expiresAt, err := s.generateToken(cashierID, registerID)
	if err != nil {
		if uerr := s.registry.UnassignRegister(registerID); uerr != nil {
			s.logger.Error("Failed to release register after token failure",
				zap.Int("register_id", registerID),
				zap.Error(uerr),
			)
		}
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.Info("Cashier signed in",
		zap.String("cashier_id", cashierID),
		zap.Int("register_id", registerID),
	)
	return token, expiresAt, nil
}

// SignOut releases the register if cashierID is the one working it
func (s *shiftService) SignOut(_ context.Context, registerID int, cashierID string) error {
	current, ok := s.registry.CashierOf(registerID)
	if !ok || current != cashierID {
		return fmt.Errorf("%w: cashier %s is not at register %d", domain.ErrNotAssigned, cashierID, registerID)
	}
	if err := s.registry.UnassignRegister(registerID); err != nil {
		return err
	}
	s.logger.Info("Cashier signed out",
		zap.String("cashier_id", cashierID),
		zap.Int("register_id", registerID),
	)
	return nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *shiftService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.CashierID == "" || claims.RegisterID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Assignments lists the registers currently worked
func (s *shiftService) Assignments() []domain.Assignment {
	return s.registry.Assignments()
}

func (s *shiftService) generateToken(cashierID string, registerID int) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)
	claims := &Claims{
		CashierID:  cashierID,
		RegisterID: registerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cashierID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}
