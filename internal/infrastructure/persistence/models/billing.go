package models

import (
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BillModel is the persistence model for the Bill aggregate
type BillModel struct {
	AggregateModel
	UserID          uuid.UUID              `gorm:"type:uuid;not null;index:idx_bills_user_type_due,priority:1"`
	FlatNumber      string                 `gorm:"type:varchar(50);not null;index"`
	BillType        billing.BillType       `gorm:"type:varchar(20);not null;index:idx_bills_user_type_due,priority:2"`
	OriginalAmount  decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	TotalAmount     decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	AmountPaid      decimal.Decimal        `gorm:"type:decimal(12,2);not null;default:0"`
	RemainingAmount decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Status          billing.BillStatus     `gorm:"type:varchar(20);not null;default:'unpaid'"`
	DueDate         time.Time              `gorm:"not null;index:idx_bills_user_type_due,priority:3"`
	UploadedAt      time.Time              `gorm:"not null;index"`
	PaymentDetails  billing.PaymentDetails `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (BillModel) TableName() string {
	return "bills"
}

// ToDomain converts the persistence model to a domain Bill
func (m *BillModel) ToDomain() *billing.Bill {
	details := m.PaymentDetails
	if details == nil {
		details = billing.PaymentDetails{}
	}
	return &billing.Bill{
		BaseAggregateRoot: m.ToAggregateRoot(),
		UserID:            m.UserID,
		FlatNumber:        m.FlatNumber,
		BillType:          m.BillType,
		OriginalAmount:    m.OriginalAmount,
		TotalAmount:       m.TotalAmount,
		AmountPaid:        m.AmountPaid,
		RemainingAmount:   m.RemainingAmount,
		Status:            m.Status,
		DueDate:           m.DueDate,
		UploadedAt:        m.UploadedAt,
		PaymentDetails:    details,
	}
}

// FromDomain populates the persistence model from a domain Bill
func (m *BillModel) FromDomain(b *billing.Bill) {
	m.FromDomainAggregateRoot(b.BaseAggregateRoot)
	m.UserID = b.UserID
	m.FlatNumber = b.FlatNumber
	m.BillType = b.BillType
	m.OriginalAmount = b.OriginalAmount
	m.TotalAmount = b.TotalAmount
	m.AmountPaid = b.AmountPaid
	m.RemainingAmount = b.RemainingAmount
	m.Status = b.Status
	m.DueDate = b.DueDate
	m.UploadedAt = b.UploadedAt
	m.PaymentDetails = b.PaymentDetails
}

// BillModelFromDomain creates a new persistence model from a domain Bill
func BillModelFromDomain(b *billing.Bill) *BillModel {
	m := &BillModel{}
	m.FromDomain(b)
	return m
}

// PaymentModel is the persistence model for a Payment record
type PaymentModel struct {
	BaseModel
	UserID        uuid.UUID             `gorm:"type:uuid;not null;index:idx_payments_user_date,priority:1"`
	BillID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	FlatNumber    string                `gorm:"type:varchar(50);not null"`
	AmountPaid    decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	PaymentDate   time.Time             `gorm:"not null;index:idx_payments_user_date,priority:2"`
	PaymentMethod string                `gorm:"type:varchar(50);not null;default:'Online'"`
	TransactionID string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	Status        billing.PaymentStatus `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity:    shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		UserID:        m.UserID,
		BillID:        m.BillID,
		FlatNumber:    m.FlatNumber,
		AmountPaid:    m.AmountPaid,
		PaymentDate:   m.PaymentDate,
		PaymentMethod: m.PaymentMethod,
		TransactionID: m.TransactionID,
		Status:        m.Status,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{
		UserID:        p.UserID,
		BillID:        p.BillID,
		FlatNumber:    p.FlatNumber,
		AmountPaid:    p.AmountPaid,
		PaymentDate:   p.PaymentDate,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Status:        p.Status,
	}
	m.FromDomainBaseEntity(p.BaseEntity)
	return m
}
