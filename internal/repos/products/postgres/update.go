package products

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/products"
)

// Update overwrites name, cost and stock of p.ID with the values in p.
func (r *productsRepo) Update(tx *sql.Tx, p products.Product) (products.Product, error) {
	row := tx.QueryRow(`
		UPDATE products
		SET name = $2, cost = $3, amount_available = $4, updated_at = now()
		WHERE id = $1
		RETURNING `+productColumns,
		p.ID, p.Name, p.Cost, p.AmountAvailable)

	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrProductNotFound
		}

		return products.Product{}, fmt.Errorf("update product: %w", err)
	}

	return updated, nil
}
