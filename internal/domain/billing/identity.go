package billing

import (
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
)

// Identity is the authenticated caller passed into every billing operation
type Identity struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// RequireAuthenticated fails when the identity carries no user
func (i Identity) RequireAuthenticated() error {
	if i.UserID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	return nil
}

// RequireAdmin fails unless the caller is an administrator
func (i Identity) RequireAdmin() error {
	if err := i.RequireAuthenticated(); err != nil {
		return err
	}
	if !i.IsAdmin {
		return shared.ErrForbidden
	}
	return nil
}

// CanAccess reports whether the caller may act on a record owned by ownerID
func (i Identity) CanAccess(ownerID uuid.UUID) bool {
	return i.IsAdmin || (i.UserID != uuid.Nil && i.UserID == ownerID)
}

// RequireOwnerOrAdmin fails when the caller may not act on ownerID's records
func (i Identity) RequireOwnerOrAdmin(ownerID uuid.UUID) error {
	if err := i.RequireAuthenticated(); err != nil {
		return err
	}
	if !i.CanAccess(ownerID) {
		return shared.ErrForbidden
	}
	return nil
}
