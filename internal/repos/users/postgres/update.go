package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/users"
)

func (r *usersRepo) UpdateUsername(ctx context.Context, userID uint64, username string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2
		WHERE id = $1
	`, userID, username)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return users.ErrUsernameTaken
		}

		return fmt.Errorf("update username: %w", err)
	}

	return requireOneRow(res)
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID uint64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $2
		WHERE id = $1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return requireOneRow(res)
}

func requireOneRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return users.ErrUserNotFound
	}

	return nil
}
