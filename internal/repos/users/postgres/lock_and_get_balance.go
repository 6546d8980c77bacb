package users

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/users"
)

// LockAndGetBalance takes the row lock every balance mutation is serialized on.
func (r *usersRepo) LockAndGetBalance(tx *sql.Tx, userID uint64) (int64, error) {
	var deposit int64

	err := tx.QueryRow(`
		SELECT deposit
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID).Scan(&deposit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, users.ErrUserNotFound
		}

		return 0, fmt.Errorf("lock/get balance: %w", err)
	}

	return deposit, nil
}
