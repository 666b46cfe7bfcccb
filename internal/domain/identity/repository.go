package identity

import (
	"context"

	"github.com/google/uuid"
)

// ResidentFilter contains filter options for listing residents
type ResidentFilter struct {
	Complex Complex
}

// ResidentRepository defines the interface for resident persistence
type ResidentRepository interface {
	Create(ctx context.Context, resident *Resident) error

	// CreateBatch inserts all residents in one statement
	CreateBatch(ctx context.Context, residents []*Resident) error

	FindByID(ctx context.Context, id uuid.UUID) (*Resident, error)
	FindByFlatNumber(ctx context.Context, flatNumber string) (*Resident, error)

	// FindByFlatNumbers returns the residents found, keyed by flat number
	FindByFlatNumbers(ctx context.Context, flatNumbers []string) (map[string]*Resident, error)

	FindAll(ctx context.Context, filter ResidentFilter) ([]*Resident, error)

	// ExistingKeys returns which of the given flat numbers and emails are taken
	ExistingKeys(ctx context.Context, flatNumbers, emails []string) (flats map[string]bool, mails map[string]bool, err error)
}

// AdminRepository defines the interface for admin persistence
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	FindByID(ctx context.Context, id uuid.UUID) (*Admin, error)
	FindByEmail(ctx context.Context, email string) (*Admin, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Count returns the number of admins; zero allows the first admin to self-register
	Count(ctx context.Context) (int64, error)
}
