package products

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/products"
)

// DecreaseStock never lets stock go negative: a missing row or a short
// stock both report ErrInsufficientStock.
func (r *productsRepo) DecreaseStock(tx *sql.Tx, productID uint64, quantity int64) (int64, error) {
	var stock int64

	err := tx.QueryRow(`
		UPDATE products
		SET amount_available = amount_available - $2, updated_at = now()
		WHERE id = $1
		  AND amount_available >= $2
		RETURNING amount_available
	`, productID, quantity).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, products.ErrInsufficientStock
		}

		return 0, fmt.Errorf("decrease stock: %w", err)
	}

	return stock, nil
}
