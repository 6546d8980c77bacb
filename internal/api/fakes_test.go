package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fastprodman/coinmarket/internal/apperr"
	"github.com/fastprodman/coinmarket/internal/auth"
	"github.com/fastprodman/coinmarket/internal/coins"
	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/repos/purchases"
	"github.com/fastprodman/coinmarket/internal/repos/users"
	"github.com/fastprodman/coinmarket/internal/services/inventory"
	"github.com/fastprodman/coinmarket/internal/services/market"
	"github.com/google/uuid"
)

var (
	seller = users.Account{ID: 1, Username: "seller", Role: users.RoleSeller, IsActive: true}
	other  = users.Account{ID: 3, Username: "other", Role: users.RoleSeller, IsActive: true}
	buyer  = users.Account{ID: 2, Username: "buyer", Role: users.RoleBuyer, Deposit: 100, IsActive: true}
)

type fakeAccounts struct {
	byToken map[string]users.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byToken: map[string]users.Account{
		"seller-token": seller,
		"other-token":  other,
		"buyer-token":  buyer,
	}}
}

func (f *fakeAccounts) Register(_ context.Context, username, _ string, role users.Role) (users.Account, error) {
	if username == "buyer" {
		return users.Account{}, apperr.NewValidation("username", []string{"Username is already taken. Please choose another one"})
	}

	return users.Account{ID: 9, Username: username, Role: role, IsActive: true}, nil
}

func (f *fakeAccounts) Login(_ context.Context, username, password string) (auth.Token, error) {
	if username == "buyer" && password == "pw" {
		return auth.Token{Token: "buyer-token", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}, nil
	}

	return auth.Token{}, auth.ErrInvalidCredentials
}

func (f *fakeAccounts) Authenticate(_ context.Context, raw string) (users.Account, error) {
	a, ok := f.byToken[raw]
	if !ok {
		return users.Account{}, errors.Join(auth.ErrInvalidToken, errors.New("signature is invalid"))
	}

	return a, nil
}

func (f *fakeAccounts) UpdateUsername(_ context.Context, accountID uint64, username string) (users.Account, error) {
	a := buyer
	a.ID = accountID
	a.Username = username

	return a, nil
}

func (f *fakeAccounts) ChangePassword(_ context.Context, accountID uint64, oldPassword, _ string) (users.Account, error) {
	if oldPassword != "pw" {
		return users.Account{}, apperr.NewValidation("old_password", []string{"Old password didn't match"})
	}

	a := buyer
	a.ID = accountID

	return a, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	balance  int64
	deposits int
}

func (f *fakeLedger) Deposit(_ context.Context, _ uint64, amount int64) (int64, error) {
	verr := apperr.NewValidation("amount", coins.DepositPolicy.Validate(amount))
	if verr != nil {
		return 0, verr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.deposits++
	f.balance += amount

	return f.balance, nil
}

func (f *fakeLedger) Reset(context.Context, uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.balance = 0

	return 0, nil
}

type fakeInventory struct {
	products map[uint64]products.Product
	deleted  []uint64
}

func newFakeInventory() *fakeInventory {
	return &fakeInventory{products: map[uint64]products.Product{
		10: {ID: 10, SellerID: seller.ID, Name: "Cola", Cost: 10, AmountAvailable: 20},
	}}
}

func (f *fakeInventory) Create(_ context.Context, in inventory.CreateInput) (products.Product, error) {
	verr := apperr.NewValidation("cost", coins.CostPolicy.Validate(in.Cost))
	if verr != nil {
		return products.Product{}, verr
	}

	return products.Product{ID: 11, SellerID: in.SellerID, Name: in.Name, Cost: in.Cost, AmountAvailable: in.AmountAvailable}, nil
}

func (f *fakeInventory) Update(_ context.Context, productID uint64, in inventory.UpdateInput) (products.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return products.Product{}, products.ErrProductNotFound
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

	return p, nil
}

func (f *fakeInventory) Delete(_ context.Context, productID uint64) error {
	f.deleted = append(f.deleted, productID)
	return nil
}

func (f *fakeInventory) Get(_ context.Context, productID uint64) (products.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return products.Product{}, products.ErrProductNotFound
	}

	return p, nil
}

func (f *fakeInventory) List(context.Context) ([]products.Product, error) {
	return []products.Product{f.products[10]}, nil
}

type fakeMarket struct {
	err   error
	calls int
}

func (f *fakeMarket) Purchase(_ context.Context, _, productID uint64, quantity int64) (market.Result, error) {
	f.calls++

	if f.err != nil {
		return market.Result{}, f.err
	}

	if productID != 10 {
		return market.Result{}, products.ErrProductNotFound
	}

	return market.Result{PurchaseID: uuid.New(), ProductName: "Cola", Quantity: quantity, TotalCost: 10 * quantity, Change: 100 - 10*quantity}, nil
}

func (f *fakeMarket) History(_ context.Context, buyerID uint64) ([]purchases.Purchase, error) {
	return []purchases.Purchase{
		{ID: uuid.New(), BuyerID: buyerID, ProductID: 10, ProductName: "Cola", Quantity: 2, UnitCost: 10, TotalCost: 20, Change: 80},
		{ID: uuid.New(), BuyerID: buyerID, ProductName: "Gone", Quantity: 1, UnitCost: 5, TotalCost: 5, Change: 75},
	}, nil
}
