// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer free
// from ORM concerns.
//
// Structure:
//   - base.go: BaseModel and AggregateModel shared by every table
//   - billing.go: bills and payments
//   - resident.go: residents and admins
package models
