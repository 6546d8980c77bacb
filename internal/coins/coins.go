// Package coins holds the denomination rules every coin amount in the
// marketplace must follow.
//
// Validation never fails fast: every violated rule contributes one message so
// a client can fix all of them in a single round trip.
package coins

import "fmt"

// Denomination is the only coin the marketplace accepts. Deposits and product
// costs must be exact multiples of it.
const Denomination int64 = 5

const (
	MinAmount int64 = 0
	MaxAmount int64 = 100

	MinQuantity int64 = 1
	MaxQuantity int64 = 1000
)

// Policy binds the generic amount check to a subject used in messages.
type Policy struct {
	Subject      string
	Min          int64
	Max          int64
	Denomination int64
}

var (
	DepositPolicy = Policy{Subject: "Deposit amount", Min: MinAmount, Max: MaxAmount, Denomination: Denomination}
	CostPolicy    = Policy{Subject: "Product cost", Min: MinAmount, Max: MaxAmount, Denomination: Denomination}
)

// Validate returns the messages for every rule amount violates; nil means valid.
func (p Policy) Validate(amount int64) []string {
	return ValidateAmount(p.Subject, amount, p.Min, p.Max, p.Denomination)
}

// ValidateAmount checks amount against the denomination and the inclusive
// [minBound, maxBound] range. Both checks always run.
func ValidateAmount(subject string, amount, minBound, maxBound, denomination int64) []string {
	var msgs []string

	if denomination <= 0 || amount%denomination != 0 {
		msgs = append(msgs, fmt.Sprintf("%s can only be a multiple of %d.", subject, denomination))
	}

	if amount < minBound || amount > maxBound {
		msgs = append(msgs, fmt.Sprintf("%s can be set values between %d to %d.", subject, minBound, maxBound))
	}

	return msgs
}

// ValidateQuantity bounds a purchase unit count. Quantities are not coin
// amounts, so no denomination rule applies.
func ValidateQuantity(quantity int64) []string {
	switch {
	case quantity < MinQuantity:
		return []string{fmt.Sprintf("Ensure this value is greater than or equal to %d.", MinQuantity)}
	case quantity > MaxQuantity:
		return []string{fmt.Sprintf("Ensure this value is less than or equal to %d.", MaxQuantity)}
	default:
		return nil
	}
}
