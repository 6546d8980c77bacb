// Package inventory manages products and their stock.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fastprodman/coinmarket/internal/apperr"
	"github.com/fastprodman/coinmarket/internal/coins"
	"github.com/fastprodman/coinmarket/internal/infra/pgutils"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	pgproducts "github.com/fastprodman/coinmarket/internal/repos/products/postgres"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	pgusers "github.com/fastprodman/coinmarket/internal/repos/users/postgres"
)

const MaxNameLength = 250

type Service struct {
	db       *sql.DB
	users    users.Users
	products products.Products
}

func New(db *sql.DB) *Service {
	return &Service{
		db:       db,
		users:    pgusers.New(db),
		products: pgproducts.New(db),
	}
}

type CreateInput struct {
	SellerID        uint64
	Name            string
	Cost            int64
	AmountAvailable int64
}

// UpdateInput changes only the non-nil fields.
type UpdateInput struct {
	Name            *string
	Cost            *int64
	AmountAvailable *int64
}

func (s *Service) Create(ctx context.Context, in CreateInput) (products.Product, error) {
	verr := &apperr.ValidationError{}
	verr.Add("name", validateName(in.Name)...)
	verr.Add("cost", coins.CostPolicy.Validate(in.Cost)...)
	verr.Add("amount_available", validateStock(in.AmountAvailable)...)

	err := verr.Err()
	if err != nil {
		return products.Product{}, err
	}

	var created products.Product

	err = pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		err := s.users.Exists(tx, in.SellerID)
		if err != nil {
			return fmt.Errorf("check seller exists: %w", err)
		}

		created, err = s.products.Insert(tx, products.Product{
			SellerID:        in.SellerID,
			Name:            in.Name,
			Cost:            in.Cost,
			AmountAvailable: in.AmountAvailable,
		})
		if err != nil {
			return fmt.Errorf("insert product: %w", err)
		}

		return nil
	})
	if err != nil {
		return products.Product{}, fmt.Errorf("create product: %w", err)
	}

	return created, nil
}

// Update applies in to the locked product row. The resulting cost is always
// validated, supplied or not; on any violation nothing changes.
func (s *Service) Update(ctx context.Context, productID uint64, in UpdateInput) (products.Product, error) {
	var updated products.Product

	err := pgutils.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		p, err := s.products.LockForUpdate(tx, productID)
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}

		if in.Name != nil {
			p.Name = *in.Name
		}

		if in.Cost != nil {
			p.Cost = *in.Cost
		}

		if in.AmountAvailable != nil {
			p.AmountAvailable = *in.AmountAvailable
		}

		verr := &apperr.ValidationError{}
		verr.Add("name", validateName(p.Name)...)
		verr.Add("cost", coins.CostPolicy.Validate(p.Cost)...)
		verr.Add("amount_available", validateStock(p.AmountAvailable)...)

		err = verr.Err()
		if err != nil {
			return err
		}

		updated, err = s.products.Update(tx, p)
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}

		return nil
	})
	if err != nil {
		return products.Product{}, fmt.Errorf("update product %d: %w", productID, err)
	}

	return updated, nil
}

// CheckAvailability reports whether p has at least quantity units in stock.
func CheckAvailability(p products.Product, quantity int64) bool {
	return p.AmountAvailable >= quantity
}

// Decrement removes quantity units inside the caller's transaction.
func (s *Service) Decrement(tx *sql.Tx, productID uint64, quantity int64) (int64, error) {
	stock, err := s.products.DecreaseStock(tx, productID, quantity)
	if err != nil {
		return 0, fmt.Errorf("decrease stock: %w", err)
	}

	return stock, nil
}

func (s *Service) Delete(ctx context.Context, productID uint64) error {
	err := s.products.Delete(ctx, productID)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, productID uint64) (products.Product, error) {
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return products.Product{}, fmt.Errorf("get product: %w", err)
	}

	return p, nil
}

func (s *Service) List(ctx context.Context) ([]products.Product, error) {
	list, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return list, nil
}

func validateName(name string) []string {
	switch {
	case strings.TrimSpace(name) == "":
		return []string{"This field may not be blank."}
	case utf8.RuneCountInString(name) > MaxNameLength:
		return []string{fmt.Sprintf("Ensure this field has no more than %d characters.", MaxNameLength)}
	default:
		return nil
	}
}

func validateStock(stock int64) []string {
	if stock < 0 {
		return []string{"Ensure this value is greater than or equal to 0."}
	}

	return nil
}
