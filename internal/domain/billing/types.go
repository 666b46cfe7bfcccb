package billing

// BillType is the carry-forward scope of a bill
type BillType string

const (
	BillTypeElectricity BillType = "electricity"
	BillTypeMaintenance BillType = "maintenance"
)

// IsValid checks if the bill type is known
func (t BillType) IsValid() bool {
	switch t {
	case BillTypeElectricity, BillTypeMaintenance:
		return true
	}
	return false
}

// String returns the string representation of BillType
func (t BillType) String() string {
	return string(t)
}

// BillStatus is derived from the bill totals, never set directly
type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusUnpaid, BillStatusPartial, BillStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of BillStatus
func (s BillStatus) String() string {
	return string(s)
}

// PaymentStatus is the outcome of one payment attempt
type PaymentStatus string

const (
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// IsValid checks if the payment status is known
func (s PaymentStatus) IsValid() bool {
	return s == PaymentStatusSuccessful || s == PaymentStatusFailed
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// DefaultPaymentMethod is recorded when the caller does not name one
const DefaultPaymentMethod = "Online"
