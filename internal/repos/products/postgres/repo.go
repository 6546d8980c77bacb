package products

import (
	"database/sql"

	"github.com/fastprodman/coinmarket/internal/repos/products"
)

var _ products.Products = (*productsRepo)(nil)

type productsRepo struct{ db *sql.DB }

func New(db *sql.DB) *productsRepo {
	return &productsRepo{db: db}
}

const productColumns = `id, seller_id, name, cost, amount_available, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (products.Product, error) {
	var p products.Product

	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.Cost, &p.AmountAvailable, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return products.Product{}, err
	}

	return p, nil
}
