package models

import (
	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
)

// ResidentModel is the persistence model for the Resident aggregate
type ResidentModel struct {
	AggregateModel
	FlatNumber   string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string           `gorm:"type:varchar(200);not null"`
	Email        string           `gorm:"type:varchar(200);not null;uniqueIndex"`
	Phone        string           `gorm:"type:varchar(50)"`
	PasswordHash string           `gorm:"type:varchar(255);not null"`
	Complex      identity.Complex `gorm:"type:varchar(50);not null;index"`
}

// TableName returns the table name for GORM
func (ResidentModel) TableName() string {
	return "residents"
}

// ToDomain converts the persistence model to a domain Resident
func (m *ResidentModel) ToDomain() *identity.Resident {
	return &identity.Resident{
		BaseAggregateRoot: m.ToAggregateRoot(),
		FlatNumber:        m.FlatNumber,
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		PasswordHash:      m.PasswordHash,
		Complex:           m.Complex,
	}
}

// ResidentModelFromDomain creates a new persistence model from a domain Resident
func ResidentModelFromDomain(r *identity.Resident) *ResidentModel {
	m := &ResidentModel{
		FlatNumber:   r.FlatNumber,
		Name:         r.Name,
		Email:        r.Email,
		Phone:        r.Phone,
		PasswordHash: r.PasswordHash,
		Complex:      r.Complex,
	}
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	return m
}

// AdminModel is the persistence model for the Admin aggregate
type AdminModel struct {
	AggregateModel
	Email        string `gorm:"type:varchar(200);not null;uniqueIndex"`
	Name         string `gorm:"type:varchar(200);not null"`
	PasswordHash string `gorm:"type:varchar(255);not null"`
}

// TableName returns the table name for GORM
func (AdminModel) TableName() string {
	return "admins"
}

// ToDomain converts the persistence model to a domain Admin
func (m *AdminModel) ToDomain() *identity.Admin {
	return &identity.Admin{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		PasswordHash:      m.PasswordHash,
	}
}

// AdminModelFromDomain creates a new persistence model from a domain Admin
func AdminModelFromDomain(a *identity.Admin) *AdminModel {
	m := &AdminModel{
		Email:        a.Email,
		Name:         a.Name,
		PasswordHash: a.PasswordHash,
	}
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	return m
}
