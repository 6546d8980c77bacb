package users

import (
	"database/sql"
	"fmt"
	"testing"
)

func seedAccount(t *testing.T, db *sql.DB, id uint64, role string, deposit int64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO users (id, username, password_hash, role, deposit)
		VALUES ($1, $2, 'x', $3, $4)
	`, id, fmt.Sprintf("user_%d", id), role, deposit)
	if err != nil {
		t.Fatalf("seed user(%d): %v", id, err)
	}
}

func depositOf(t *testing.T, db *sql.DB, id uint64) int64 {
	t.Helper()

	var deposit int64

	err := db.QueryRow(`SELECT deposit FROM users WHERE id = $1`, id).Scan(&deposit)
	if err != nil {
		t.Fatalf("read deposit(%d): %v", id, err)
	}

	return deposit
}
