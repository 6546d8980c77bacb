package products

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/fastprodman/coinmarket/internal/repos/products"
)

func seedSeller(t *testing.T, db *sql.DB, id uint64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO users (id, username, password_hash, role)
		VALUES ($1, $2, 'x', 'SELLER')
	`, id, fmt.Sprintf("seller_%d", id))
	if err != nil {
		t.Fatalf("seed seller(%d): %v", id, err)
	}
}

func seedProduct(t *testing.T, db *sql.DB, sellerID uint64, name string, cost, stock int64) products.Product {
	t.Helper()

	repo := New(db)

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := repo.Insert(tx, products.Product{SellerID: sellerID, Name: name, Cost: cost, AmountAvailable: stock})
	if err != nil {
		t.Fatalf("seed product %q: %v", name, err)
	}

	err = tx.Commit()
	if err != nil {
		t.Fatalf("commit seed: %v", err)
	}

	return p
}
