package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/users"
)

func (r *usersRepo) GetByID(ctx context.Context, userID uint64) (users.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE id = $1
	`, userID)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Account{}, users.ErrUserNotFound
		}

		return users.Account{}, fmt.Errorf("get user by id: %w", err)
	}

	return a, nil
}

func (r *usersRepo) GetByUsername(ctx context.Context, username string) (users.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE username = $1
	`, username)

	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return users.Account{}, users.ErrUserNotFound
		}

		return users.Account{}, fmt.Errorf("get user by username: %w", err)
	}

	return a, nil
}
