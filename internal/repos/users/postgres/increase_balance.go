package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/users"
)

func (r *usersRepo) IncreaseBalance(tx *sql.Tx, userID uint64, amount int64) (int64, error) {
	var deposit int64

	err := tx.QueryRow(`
		UPDATE users
		SET deposit = deposit + $2
		WHERE id = $1
		RETURNING deposit
	`, userID, amount).Scan(&deposit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}

		return 0, fmt.Errorf("increase balance: %w", err)
	}

	return deposit, nil
}
