package users

import (
	"context"
	"fmt"
)

func (r *usersRepo) ResetBalance(ctx context.Context, userID uint64) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET deposit = 0
		WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("reset balance: %w", err)
	}

	return requireOneRow(res)
}
