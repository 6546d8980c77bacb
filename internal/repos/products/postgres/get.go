package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/repos/products"
)

func (r *productsRepo) Get(ctx context.Context, productID uint64) (products.Product, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
	`, productID)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrProductNotFound
		}

		return products.Product{}, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

func (r *productsRepo) List(ctx context.Context) ([]products.Product, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+productColumns+`
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]products.Product, 0)

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}

	return out, nil
}

// LockForUpdate reads the product row and holds its lock until tx ends.
func (r *productsRepo) LockForUpdate(tx *sql.Tx, productID uint64) (products.Product, error) {
	row := tx.QueryRow(`
		SELECT `+productColumns+`
		FROM products
		WHERE id = $1
		FOR UPDATE
	`, productID)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return products.Product{}, products.ErrProductNotFound
		}

		return products.Product{}, fmt.Errorf("lock product: %w", err)
	}

	return p, nil
}
