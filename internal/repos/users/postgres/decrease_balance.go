package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/users"
)

// DecreaseBalance never lets the deposit go negative: a missing row or a
// short balance both report ErrInsufficientFunds.
func (r *usersRepo) DecreaseBalance(tx *sql.Tx, userID uint64, amount int64) (int64, error) {
	var deposit int64

	err := tx.QueryRow(`
		UPDATE users
		SET deposit = deposit - $2
		WHERE id = $1
		  AND deposit >= $2
		RETURNING deposit
	`, userID, amount).Scan(&deposit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrInsufficientFunds
		}

		return 0, fmt.Errorf("decrease balance: %w", err)
	}

	return deposit, nil
}
