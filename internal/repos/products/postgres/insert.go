package products

import (
	"database/sql"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/products"
)

func (r *productsRepo) Insert(tx *sql.Tx, p products.Product) (products.Product, error) {
	row := tx.QueryRow(`
		INSERT INTO products (seller_id, name, cost, amount_available)
		VALUES ($1, $2, $3, $4)
		RETURNING `+productColumns,
		p.SellerID, p.Name, p.Cost, p.AmountAvailable)

	created, err := scanProduct(row)
	if err != nil {
		if pgutils.IsForeignKeyViolation(err) {
			return products.Product{}, products.ErrSellerNotFound
		}

		return products.Product{}, fmt.Errorf("insert product: %w", err)
	}

	return created, nil
}
