package market

import (
	"fmt"
	"strings"

	"github.com/fastprodman/coinmarket/internal/repos/products"
	"github.com/fastprodman/coinmarket/internal/repos/users"
)

// PurchaseRejectedError lists every business rule a purchase violated.
// errors.Is matches users.ErrInsufficientFunds and products.ErrInsufficientStock
// for the rules that failed.
type PurchaseRejectedError struct {
	Details []string
	reasons []error
}

func (e *PurchaseRejectedError) Error() string {
	return "purchase rejected: " + strings.Join(e.Details, " ")
}

func (e *PurchaseRejectedError) Unwrap() []error {
	return e.reasons
}

func (e *PurchaseRejectedError) empty() bool {
	return len(e.Details) == 0
}

func (e *PurchaseRejectedError) insufficientFunds(total int64) {
	e.Details = append(e.Details, fmt.Sprintf(
		"Insufficient funds. Please make sure to have at least %d in your deposit.", total))
	e.reasons = append(e.reasons, users.ErrInsufficientFunds)
}

func (e *PurchaseRejectedError) insufficientStock(stock int64) {
	e.Details = append(e.Details, fmt.Sprintf(
		"Product insufficient stock. You can only buy a total of %d.", stock))
	e.reasons = append(e.reasons, products.ErrInsufficientStock)
}
