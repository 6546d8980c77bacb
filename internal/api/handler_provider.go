package api

import (
	"context"
	"log/slog"

	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/infra/idempotency"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/repos/purchases"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	"github.com/fastprodman/coinmarket/internal/services/inventory"
	"github.com/fastprodman/coinmarket/internal/services/market"
)

type AccountService interface {
	Register(ctx context.Context, username, password string, role users.Role) (users.Account, error)
	Login(ctx context.Context, username, password string) (auth.Token, error)
	Authenticate(ctx context.Context, raw string) (users.Account, error)
	UpdateUsername(ctx context.Context, accountID uint64, username string) (users.Account, error)
	ChangePassword(ctx context.Context, accountID uint64, oldPassword, newPassword string) (users.Account, error)
}

type LedgerService interface {
	Deposit(ctx context.Context, accountID uint64, amount int64) (int64, error)
	Reset(ctx context.Context, accountID uint64) (int64, error)
}

type InventoryService interface {
	Create(ctx context.Context, in inventory.CreateInput) (products.Product, error)
	Update(ctx context.Context, productID uint64, in inventory.UpdateInput) (products.Product, error)
	Delete(ctx context.Context, productID uint64) error
	Get(ctx context.Context, productID uint64) (products.Product, error)
	List(ctx context.Context) ([]products.Product, error)
}

type MarketService interface {
	Purchase(ctx context.Context, buyerID, productID uint64, quantity int64) (market.Result, error)
	History(ctx context.Context, buyerID uint64) ([]purchases.Purchase, error)
}

type IdempotencyStore interface {
	Begin(ctx context.Context, key, fingerprint string) (*idempotency.Response, error)
	Complete(ctx context.Context, key string, resp idempotency.Response) error
	Release(ctx context.Context, key string) error
}

// Deps are the services behind the HTTP API. Idempotency may be nil.
type Deps struct {
	Accounts    AccountService
	Ledger      LedgerService
	Inventory   InventoryService
	Market      MarketService
	Idempotency IdempotencyStore
	Logger      *slog.Logger
}

// HandlerProvider exposes the services as HTTP handlers.
type HandlerProvider struct {
	accounts  AccountService
	ledger    LedgerService
	inventory InventoryService
	market    MarketService
	idem      IdempotencyStore
}

func NewHandler(d Deps) *HandlerProvider {
	return &HandlerProvider{
		accounts:  d.Accounts,
		ledger:    d.Ledger,
		inventory: d.Inventory,
		market:    d.Market,
		idem:      d.Idempotency,
	}
}
