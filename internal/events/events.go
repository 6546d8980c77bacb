// Package events announces committed ledger changes to other services.
// Delivery is best effort: a failed publish is logged by the caller and never
// undoes the unit of work it describes.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	SubjectPurchaseCompleted = "purchase.completed"
	SubjectDepositChanged    = "deposit.changed"
)

type PurchaseCompleted struct {
	PurchaseID  uuid.UUID `json:"purchase_id"`
	BuyerID     uint64    `json:"buyer_id"`
	ProductID   uint64    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"quantity"`
	TotalCost   int64     `json:"total_cost"`
	Change      int64     `json:"change"`
	At          time.Time `json:"at"`
}

// DepositChanged is emitted for deposits and resets.
type DepositChanged struct {
	AccountID uint64    `json:"account_id"`
	Reason    string    `json:"reason"`
	Amount    int64     `json:"amount"`
	Balance   int64     `json:"balance"`
	At        time.Time `json:"at"`
}

const (
	ReasonDeposit = "deposit"
	ReasonReset   = "reset"
)

type Publisher interface {
	PurchaseCompleted(ctx context.Context, e PurchaseCompleted) error
	DepositChanged(ctx context.Context, e DepositChanged) error
}

// Nop drops every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) PurchaseCompleted(context.Context, PurchaseCompleted) error { return nil }
func (Nop) DepositChanged(context.Context, DepositChanged) error       { return nil }
