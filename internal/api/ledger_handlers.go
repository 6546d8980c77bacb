package api

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

type depositRequest struct {
	Amount *int64 `json:"amount"`
}

type depositResponse struct {
	Deposit int64 `json:"deposit"`
}

// Deposit handles POST /deposit
func (h *HandlerProvider) Deposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{"amount": req.Amount != nil})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	a, _ := accountFrom(r.Context())

	balance, err := h.ledger.Deposit(r.Context(), a.ID, *req.Amount)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, depositResponse{Deposit: balance})
}

// Reset handles POST /reset
func (h *HandlerProvider) Reset(w http.ResponseWriter, r *http.Request) {
	a, _ := accountFrom(r.Context())

	balance, err := h.ledger.Reset(r.Context(), a.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, depositResponse{Deposit: balance})
}

type buyRequest struct {
	ProductID      *uint64 `json:"product_id"`
	AmountProducts *int64  `json:"amount_products"`
}

type buyResponse struct {
	Change      int64  `json:"change"`
	ProductName string `json:"product_name"`
	TotalCost   int64  `json:"total_cost"`
}

// Buy handles POST /buy
func (h *HandlerProvider) Buy(w http.ResponseWriter, r *http.Request) {
	var req buyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := requireFields(map[string]bool{
		"product_id":      req.ProductID != nil,
		"amount_products": req.AmountProducts != nil,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	a, _ := accountFrom(r.Context())

	res, err := h.market.Purchase(r.Context(), a.ID, *req.ProductID, *req.AmountProducts)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, buyResponse{
		Change:      res.Change,
		ProductName: res.ProductName,
		TotalCost:   res.TotalCost,
	})
}

type purchaseResponse struct {
	ID          uuid.UUID `json:"id"`
	ProductID   *uint64   `json:"product_id"`
	ProductName string    `json:"product_name"`
	Quantity    int64     `json:"amount_products"`
	UnitCost    int64     `json:"unit_cost"`
	TotalCost   int64     `json:"total_cost"`
	Change      int64     `json:"change"`
	CreatedAt   time.Time `json:"created_at"`
}

// Purchases handles GET /purchases
func (h *HandlerProvider) Purchases(w http.ResponseWriter, r *http.Request) {
	a, _ := accountFrom(r.Context())

	list, err := h.market.History(r.Context(), a.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]purchaseResponse, 0, len(list))

	for _, p := range list {
		item := purchaseResponse{
			ID:          p.ID,
			ProductName: p.ProductName,
			Quantity:    p.Quantity,
			UnitCost:    p.UnitCost,
			TotalCost:   p.TotalCost,
			Change:      p.Change,
			CreatedAt:   p.CreatedAt.UTC(),
		}

		if p.ProductID != 0 {
			id := p.ProductID
			item.ProductID = &id
		}

		out = append(out, item)
	}

	writeJSON(w, r, http.StatusOK, out)
}
