package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/fastprodman/coinmarket/internal/infra/pgtestutil"
	"github.com/fastprodman/coinmarket/internal/repos/users"
)

func TestUsers_LockAndGetBalance_Table(t *testing.T) {
	t.Parallel()

	type tc struct {
		name        string
		seed        func(t *testing.T, db *sql.DB)
		userID      uint64
		wantBalance int64
		wantErr     error
	}

	tests := []tc{
		{
			name:        "user_exists_zero_balance",
			seed:        func(t *testing.T, db *sql.DB) { seedAccount(t, db, 1, "BUYER", 0) },
			userID:      1,
			wantBalance: 0,
		},
		{
			name:        "user_exists_positive_balance",
			seed:        func(t *testing.T, db *sql.DB) { seedAccount(t, db, 2, "BUYER", 95) },
			userID:      2,
			wantBalance: 95,
		},
		{
			name:    "user_not_found",
			userID:  999,
			wantErr: users.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db, cleanup := pgtestutil.NewTestDB(t)
			defer cleanup()

			if tt.seed != nil {
				tt.seed(t, db)
			}

			repo := New(db)

			ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
			defer cancel()

			tx, err := db.BeginTx(ctx, nil)
			if err != nil {
				t.Fatalf("begin tx: %v", err)
			}
			defer func() { _ = tx.Rollback() }()

			bal, err := repo.LockAndGetBalance(tx, tt.userID)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got: %v (balance=%d)", tt.wantErr, err, bal)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if bal != tt.wantBalance {
				t.Fatalf("balance mismatch: want %d, got %d", tt.wantBalance, bal)
			}
		})
	}
}

// A second FOR UPDATE on the same row blocks until the first tx commits.
func TestUsers_LockAndGetBalance_LocksRow(t *testing.T) {
	t.Parallel()

	db, cleanup := pgtestutil.NewTestDB(t)
	defer cleanup()

	seedAccount(t, db, 42, "BUYER", 50)

	repo := New(db)

	ctx1, cancel1 := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel1()

	tx1, err := db.BeginTx(ctx1, nil)
	if err != nil {
		t.Fatalf("begin tx1: %v", err)
	}
	defer func() { _ = tx1.Rollback() }()

	_, err = repo.LockAndGetBalance(tx1, 42)
	if err != nil {
		t.Fatalf("tx1 lock/get: %v", err)
	}

	_, err = repo.IncreaseBalance(tx1, 42, 25)
	if err != nil {
		t.Fatalf("tx1 increase: %v", err)
	}

	started := make(chan struct{})
	seen := make(chan int64, 1)
	errCh := make(chan error, 1)

	go func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()

		tx2, e := db.BeginTx(ctx2, nil)
		if e != nil {
			errCh <- e
			return
		}
		defer func() { _ = tx2.Rollback() }()

		close(started)

		bal, e := repo.LockAndGetBalance(tx2, 42)
		if e != nil {
			errCh <- e
			return
		}

		seen <- bal
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for tx2 to start")
	}

	time.Sleep(200 * time.Millisecond)

	select {
	case bal := <-seen:
		t.Fatalf("tx2 acquired the lock while tx1 held it (balance=%d)", bal)
	default:
	}

	err = tx1.Commit()
	if err != nil {
		t.Fatalf("commit tx1: %v", err)
	}

	select {
	case e := <-errCh:
		t.Fatalf("tx2 error: %v", e)
	case bal := <-seen:
		if bal != 75 {
			t.Fatalf("tx2 must see committed balance 75, got %d", bal)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for tx2 to complete after tx1 commit")
	}
}
