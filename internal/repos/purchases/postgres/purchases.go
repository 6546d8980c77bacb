package purchases

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/purchases"
)

var _ purchases.Purchases = (*purchasesRepo)(nil)

type purchasesRepo struct{ db *sql.DB }

func New(db *sql.DB) *purchasesRepo {
	return &purchasesRepo{db: db}
}

func (r *purchasesRepo) Insert(tx *sql.Tx, p purchases.Purchase) error {
	_, err := tx.Exec(`
		INSERT INTO purchases (id, buyer_id, product_id, product_name, quantity, unit_cost, total_cost, change)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, p.ID, p.BuyerID, p.ProductID, p.ProductName, p.Quantity, p.UnitCost, p.TotalCost, p.Change)
	if err != nil {
		if pgutils.IsUniqueViolation(err) {
			return purchases.ErrDuplicatePurchase
		}

		return fmt.Errorf("insert purchase: %w", err)
	}

	return nil
}

// ListByBuyer returns the buyer's receipts, newest first.
func (r *purchasesRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]purchases.Purchase, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, buyer_id, product_id, product_name, quantity, unit_cost, total_cost, change, created_at
		FROM purchases
		WHERE buyer_id = $1
		ORDER BY created_at DESC, id
	`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	//nolint:errcheck
	defer rows.Close()

	out := make([]purchases.Purchase, 0)

	for rows.Next() {
		var (
			p         purchases.Purchase
			productID sql.NullInt64
		)

		err = rows.Scan(&p.ID, &p.BuyerID, &productID, &p.ProductName,
			&p.Quantity, &p.UnitCost, &p.TotalCost, &p.Change, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan purchase: %w", err)
		}

		if productID.Valid {
			p.ProductID = uint64(productID.Int64)
		}

		out = append(out, p)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("iterate purchases: %w", err)
	}

	return out, nil
}
