package users

import (
	"database/sql"

	"github.com/fastprodman/coinmarket/internal/repos/users"
)

var _ users.Users = (*usersRepo)(nil)

type usersRepo struct{ db *sql.DB }

func New(db *sql.DB) *usersRepo {
	return &usersRepo{db: db}
}

const accountColumns = `id, username, password_hash, role, deposit, is_active, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (users.Account, error) {
	var (
		a    users.Account
		role string
	)

	err := row.Scan(&a.ID, &a.Username, &a.PasswordHash, &role, &a.Deposit, &a.IsActive, &a.CreatedAt)
	if err != nil {
		return users.Account{}, err
	}

	a.Role = users.Role(role)

	return a, nil
}
