package products

import (
	"context"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/products"
)

func (r *productsRepo) Delete(ctx context.Context, productID uint64) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM products
		WHERE id = $1
	`, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}

	if affected == 0 {
		return products.ErrProductNotFound
	}

	return nil
}
