package billing

import "github.com/shopspring/decimal"

// DeriveStatus computes the bill status from its total and the amount paid.
// It is the only place status is decided; every mutation calls it.
func DeriveStatus(total, paid decimal.Decimal) BillStatus {
	remaining := total.Sub(paid)
	switch {
	case remaining.IsZero():
		return BillStatusPaid
	case paid.IsPositive() && paid.LessThan(total):
		return BillStatusPartial
	default:
		return BillStatusUnpaid
	}
}
