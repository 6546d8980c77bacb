// Package market runs purchases: the one operation that touches a buyer's
// deposit and a product's stock together.
package market

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fastprodman/coinmarket/internal/apperr"
	"github.com/fastprodman/coinmarket/internal/coins"
	"github.com/fastprodman/coinmarket/internal/events"
	"github.com/fastprodman/coinmarket/internal/infra/logging"
	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	pgproducts "github.com/fastprodman/coinmarket/internal/repos/products/postgres"
	"github.com/fastprodman/coinmarket/internal/repos/purchases"
	pgpurchases "github.com/fastprodman/coinmarket/internal/repos/purchases/postgres"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	pgusers "github.com/fastprodman/coinmarket/internal/repos/users/postgres"
	"github.com/fastprodman/coinmarket/internal/services/inventory"
	"github.com/google/uuid"
)

type debiter interface {
	Debit(tx *sql.Tx, accountID uint64, amount int64) (int64, error)
}

type stockKeeper interface {
	Decrement(tx *sql.Tx, productID uint64, quantity int64) (int64, error)
}

type Service struct {
	db        *sql.DB
	users     users.Users
	products  products.Products
	purchases purchases.Purchases
	ledger    debiter
	stock     stockKeeper
	events    events.Publisher
	now       func() time.Time
}

func New(db *sql.DB, ledger debiter, stock stockKeeper, pub events.Publisher) *Service {
	if pub == nil {
		pub = events.Nop{}
	}

	return &Service{
		db:        db,
		users:     pgusers.New(db),
		products:  pgproducts.New(db),
		purchases: pgpurchases.New(db),
		ledger:    ledger,
		stock:     stock,
		events:    pub,
		now:       time.Now,
	}
}

// Result is what the buyer is told after a successful purchase.
// Change is the deposit left after paying.
type Result struct {
	PurchaseID  uuid.UUID
	ProductName string
	Quantity    int64
	TotalCost   int64
	Change      int64
}

// Purchase buys quantity units of productID for buyerID in a single
// transaction:
//
// 1) Lock buyer row, then product row (always in this order).
// 2) Price the purchase from the locked product.
// 3) Collect every violated rule; reject with all of them.
// 4) Debit, decrement stock, record the receipt.
//
// Either all of step 4 commits or none of it does.
func (s *Service) Purchase(ctx context.Context, buyerID, productID uint64, quantity int64) (Result, error) {
	verr := apperr.NewValidation("amount_products", coins.ValidateQuantity(quantity))
	if verr != nil {
		return Result{}, verr
	}

	var res Result

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		balance, err := s.users.LockAndGetBalance(tx, buyerID)
		if err != nil {
			return fmt.Errorf("lock buyer: %w", err)
		}

		product, err := s.products.LockForUpdate(tx, productID)
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		total := product.Cost * quantity

		rejected := &PurchaseRejectedError{}
		if balance < total {
			rejected.insufficientFunds(total)
		}

		if !inventory.CheckAvailability(product, quantity) {
			rejected.insufficientStock(product.AmountAvailable)
		}

		if !rejected.empty() {
			return rejected
		}

		change, err := s.ledger.Debit(tx, buyerID, total)
		if err != nil {
			return fmt.Errorf("debit buyer: %w", err)
		}

		_, err = s.stock.Decrement(tx, productID, quantity)
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}

		res = Result{
			PurchaseID:  uuid.New(),
			ProductName: product.Name,
			Quantity:    quantity,
			TotalCost:   total,
			Change:      change,
		}

		err = s.purchases.Insert(tx, purchases.Purchase{
			ID:          res.PurchaseID,
			BuyerID:     buyerID,
			ProductID:   productID,
			ProductName: product.Name,
			Quantity:    quantity,
			UnitCost:    product.Cost,
			TotalCost:   total,
			Change:      change,
		})
		if err != nil {
			return fmt.Errorf("record purchase: %w", err)
		}

		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("purchase: %w", err)
	}

	err = s.events.PurchaseCompleted(ctx, events.PurchaseCompleted{
		PurchaseID:  res.PurchaseID,
		BuyerID:     buyerID,
		ProductID:   productID,
		ProductName: res.ProductName,
		Quantity:    quantity,
		TotalCost:   res.TotalCost,
		Change:      res.Change,
		At:          s.now().UTC(),
	})
	if err != nil {
		logging.From(ctx).Warn("publish purchase event failed",
			"purchase_id", res.PurchaseID, "error", err)
	}

	return res, nil
}

// History lists the buyer's receipts, newest first.
func (s *Service) History(ctx context.Context, buyerID uint64) ([]purchases.Purchase, error) {
	list, err := s.purchases.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("purchase history: %w", err)
	}

	return list, nil
}
