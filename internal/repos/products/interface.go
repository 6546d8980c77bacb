package products

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrSellerNotFound    = errors.New("seller not found")
)

// Product is a sellable item. AmountAvailable never goes negative.
type Product struct {
	ID              uint64
	SellerID        uint64
	Name            string
	Cost            int64
	AmountAvailable int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Products interface {
	Insert(tx *sql.Tx, p Product) (Product, error)
	Get(ctx context.Context, productID uint64) (Product, error)
	List(ctx context.Context) ([]Product, error)
	LockForUpdate(tx *sql.Tx, productID uint64) (Product, error)
	Update(tx *sql.Tx, p Product) (Product, error)
	DecreaseStock(tx *sql.Tx, productID uint64, quantity int64) (int64, error)
	Delete(ctx context.Context, productID uint64) error
}
