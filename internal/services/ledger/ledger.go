// Package ledger owns every change to an account's coin deposit.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fastprodman/coinmarket/internal/apperr"
	"github.com/fastprodman/coinmarket/internal/coins"
	"github.com/fastprodman/coinmarket/internal/events"
	"github.com/fastprodman/coinmarket/internal/infra/logging"
	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	pgusers "github.com/fastprodman/coinmarket/internal/repos/users/postgres"
)

var ErrInvalidAmount = errors.New("invalid amount")

type Service struct {
	db     *sql.DB
	users  users.Users
	events events.Publisher
}

func New(db *sql.DB, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}

	return &Service{
		db:     db,
		users:  pgusers.New(db),
		events: pub,
	}
}

// Deposit validates amount against the deposit policy and credits it to the
// account. Nothing is written when validation fails.
//
// 1) Validate (all rules, accumulated).
// 2) Lock account row.
// 3) Increase balance and return the new one.
func (s *Service) Deposit(ctx context.Context, accountID uint64, amount int64) (int64, error) {
	verr := apperr.NewValidation("amount", coins.DepositPolicy.Validate(amount))
	if verr != nil {
		return 0, verr
	}

	var balance int64

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := s.users.LockAndGetBalance(tx, accountID)
		if err != nil {
			return fmt.Errorf("lock and get balance: %w", err)
		}

		balance, err = s.users.IncreaseBalance(tx, accountID, amount)
		if err != nil {
			return fmt.Errorf("increase balance: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deposit: %w", err)
	}

	s.announce(ctx, events.DepositChanged{
		AccountID: accountID,
		Reason:    events.ReasonDeposit,
		Amount:    amount,
		Balance:   balance,
		At:        time.Now().UTC(),
	})

	return balance, nil
}

// Reset sets the deposit to zero. Repeating it is harmless.
func (s *Service) Reset(ctx context.Context, accountID uint64) (int64, error) {
	err := s.users.ResetBalance(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}

	s.announce(ctx, events.DepositChanged{
		AccountID: accountID,
		Reason:    events.ReasonReset,
		At:        time.Now().UTC(),
	})

	return 0, nil
}

// Debit removes amount inside the caller's transaction. The caller must
// already hold the account row lock.
func (s *Service) Debit(tx *sql.Tx, accountID uint64, amount int64) (int64, error) {
	if amount < 0 {
		return 0, fmt.Errorf("debit %d: %w", amount, ErrInvalidAmount)
	}

	balance, err := s.users.DecreaseBalance(tx, accountID, amount)
	if err != nil {
		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	return balance, nil
}

func (s *Service) announce(ctx context.Context, e events.DepositChanged) {
	err := s.events.DepositChanged(ctx, e)
	if err != nil {
		logging.From(ctx).Warn("publish deposit event failed",
			"account_id", e.AccountID, "reason", e.Reason, "error", err)
	}
}
