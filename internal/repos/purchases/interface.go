package purchases

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrDuplicatePurchase = errors.New("duplicate purchase")

// Purchase is the receipt of one committed buy. ProductID is zero once the
// product has been deleted; ProductName keeps the name it was bought under.
type Purchase struct {
	ID          uuid.UUID
	BuyerID     uint64
	ProductID   uint64
	ProductName string
	Quantity    int64
	UnitCost    int64
	TotalCost   int64
	Change      int64
	CreatedAt   time.Time
}

type Purchases interface {
	Insert(tx *sql.Tx, p Purchase) error
	ListByBuyer(ctx context.Context, buyerID uint64) ([]Purchase, error)
}
