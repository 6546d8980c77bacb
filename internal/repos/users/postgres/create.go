package users

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/users"
)

func (r *usersRepo) Create(ctx context.Context, username, passwordHash string, role users.Role) (users.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING `+accountColumns,
		username, passwordHash, string(role))

	a, err := scanAccount(row)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return users.Account{}, users.ErrUsernameTaken
		}

		return users.Account{}, fmt.Errorf("insert user: %w", err)
	}

	return a, nil
}
