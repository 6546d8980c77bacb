package users

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrUsernameTaken     = errors.New("username taken")
)

type Role string

const (
	RoleBuyer  Role = "BUYER"
	RoleSeller Role = "SELLER"
)

func (r Role) Valid() bool {
	return r == RoleBuyer || r == RoleSeller
}

// Account is a marketplace user. Deposit is the coin balance, never negative.
type Account struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         Role
	Deposit      int64
	IsActive     bool
	CreatedAt    time.Time
}

type Users interface {
	Create(ctx context.Context, username, passwordHash string, role Role) (Account, error)
	GetByID(ctx context.Context, userID uint64) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	UpdateUsername(ctx context.Context, userID uint64, username string) error
	UpdatePasswordHash(ctx context.Context, userID uint64, passwordHash string) error

	Exists(tx *sql.Tx, userID uint64) error
	LockAndGetBalance(tx *sql.Tx, userID uint64) (int64, error)
	IncreaseBalance(tx *sql.Tx, userID uint64, amount int64) (int64, error)
	DecreaseBalance(tx *sql.Tx, userID uint64, amount int64) (int64, error)
	ResetBalance(ctx context.Context, userID uint64) error
}
