package identity

import (
	"strings"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
)

// Complex is the building a flat belongs to
type Complex string

const (
	ComplexRichmondPark Complex = "RICHMOND PARK"
	ComplexRegencyPark1 Complex = "REGENCY PARK-1"
	ComplexRegentHouse  Complex = "REGENT HOUSE"
	ComplexEWSSPUnits   Complex = "EWS/SP UNITS"
)

// Complexes lists every known complex
var Complexes = []Complex{ComplexRichmondPark, ComplexRegencyPark1, ComplexRegentHouse, ComplexEWSSPUnits}

// ParseComplex matches s against the known complexes, ignoring case and
// surrounding whitespace.
func ParseComplex(s string) (Complex, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, c := range Complexes {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// IsValid checks if the complex is known
func (c Complex) IsValid() bool {
	_, ok := ParseComplex(string(c))
	return ok
}

// Resident is a flat owner who logs in with the flat number and pays bills
type Resident struct {
	shared.BaseAggregateRoot
	FlatNumber   string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Complex      Complex
}

// ResidentProfile holds the non-secret registration fields
type ResidentProfile struct {
	FlatNumber string
	Name       string
	Email      string
	Phone      string
	Complex    string
}

// NewResident validates the profile and hashes the password
func NewResident(profile ResidentProfile, password string) (*Resident, error) {
	flat := strings.TrimSpace(profile.FlatNumber)
	if flat == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Flat number is required")
	}
	name := strings.TrimSpace(profile.Name)
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeValidation, "Name is required")
	}
	email, err := normalizeEmail(profile.Email)
	if err != nil {
		return nil, err
	}
	phone := strings.TrimSpace(profile.Phone)
	if len(phone) > 50 {
		return nil, shared.NewDomainError(shared.CodeValidation, "Phone cannot exceed 50 characters")
	}
	c, ok := ParseComplex(profile.Complex)
	if !ok {
		return nil, shared.NewDomainError(shared.CodeValidation, "Invalid complex: "+profile.Complex)
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	return &Resident{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		FlatNumber:        flat,
		Name:              name,
		Email:             email,
		Phone:             phone,
		PasswordHash:      hash,
		Complex:           c,
	}, nil
}

// VerifyPassword verifies if the provided password matches
func (r *Resident) VerifyPassword(password string) bool {
	return verifyPassword(r.PasswordHash, password)
}
