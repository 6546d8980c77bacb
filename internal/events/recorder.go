package events

import (
	"context"
	"sync"
)

// Recorder keeps published events in memory.
type Recorder struct {
	mu        sync.Mutex
	purchases []PurchaseCompleted
	deposits  []DepositChanged
}

func (r *Recorder) PurchaseCompleted(_ context.Context, e PurchaseCompleted) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purchases = append(r.purchases, e)

	return nil
}

func (r *Recorder) DepositChanged(_ context.Context, e DepositChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.deposits = append(r.deposits, e)

	return nil
}

func (r *Recorder) Purchases() []PurchaseCompleted {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]PurchaseCompleted(nil), r.purchases...)
}

func (r *Recorder) Deposits() []DepositChanged {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]DepositChanged(nil), r.deposits...)
}
