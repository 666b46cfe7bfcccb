package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/domain/identity"
	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var errInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid credentials")

// AuthServiceConfig contains the dependencies of the auth service
type AuthServiceConfig struct {
	Residents identity.ResidentRepository
	Admins    identity.AdminRepository
	Tokens    *auth.JWTService
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger
}

// AuthService registers and authenticates residents and admins
type AuthService struct {
	residents identity.ResidentRepository
	admins    identity.AdminRepository
	tokens    *auth.JWTService
	blacklist auth.TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	blacklist := cfg.Blacklist
	if blacklist == nil {
		blacklist = auth.NewInMemoryTokenBlacklist()
	}
	return &AuthService{
		residents: cfg.Residents,
		admins:    cfg.Admins,
		tokens:    cfg.Tokens,
		blacklist: blacklist,
		logger:    logger,
	}
}

// RegisterResident creates a resident account. Flat numbers and emails are unique.
func (s *AuthService) RegisterResident(ctx context.Context, input RegisterResidentInput) (*ResidentResponse, error) {
	resident, err := identity.NewResident(identity.ResidentProfile{
		FlatNumber: input.FlatNumber,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Complex:    input.Complex,
	}, input.Password)
	if err != nil {
		return nil, err
	}

	flats, mails, err := s.residents.ExistingKeys(ctx, []string{resident.FlatNumber}, []string{resident.Email})
	if err != nil {
		return nil, fmt.Errorf("check existing residents: %w", err)
	}
	if flats[resident.FlatNumber] {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Flat number already registered")
	}
	if mails[resident.Email] {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Email already registered")
	}

	if err := s.residents.Create(ctx, resident); err != nil {
		return nil, err
	}

	s.logger.Info("Resident registered",
		zap.String("resident_id", resident.ID.String()),
		zap.String("flat_number", resident.FlatNumber))

	resp := ToResidentResponse(resident)
	return &resp, nil
}

// LoginResident authenticates a resident by flat number and password
func (s *AuthService) LoginResident(ctx context.Context, input ResidentLoginInput) (*LoginResult, error) {
	flat := strings.TrimSpace(input.FlatNumber)
	resident, err := s.residents.FindByFlatNumber(ctx, flat)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown flat", zap.String("flat_number", flat))
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !resident.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid password attempt", zap.String("flat_number", flat))
		return nil, errInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:     resident.ID,
		Name:       resident.Name,
		FlatNumber: resident.FlatNumber,
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info("Resident logged in", zap.String("resident_id", resident.ID.String()))

	resp := ToResidentResponse(resident)
	return &LoginResult{Tokens: pair, Resident: &resp}, nil
}

// RegisterAdmin creates an admin account. Only an admin may do this once the
// first admin exists.
func (s *AuthService) RegisterAdmin(ctx context.Context, caller billing.Identity, input RegisterAdminInput) (*AdminResponse, error) {
	count, err := s.admins.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		if err := caller.RequireAdmin(); err != nil {
			return nil, err
		}
	}

	admin, err := identity.NewAdmin(input.Email, input.Name, input.Password)
	if err != nil {
		return nil, err
	}
	exists, err := s.admins.ExistsByEmail(ctx, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("check existing admin: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "Admin already exists")
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin registered",
		zap.String("admin_id", admin.ID.String()),
		zap.Bool("bootstrap", count == 0))

	return &AdminResponse{ID: admin.ID, Email: admin.Email, Name: admin.Name}, nil
}

// LoginAdmin authenticates an admin by email and password
func (s *AuthService) LoginAdmin(ctx context.Context, input AdminLoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	admin, err := s.admins.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	if !admin.VerifyPassword(input.Password) {
		s.logger.Warn("Invalid admin password attempt", zap.String("email", email))
		return nil, errInvalidCredentials
	}

	pair, err := s.tokens.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:  admin.ID,
		Name:    admin.Name,
		IsAdmin: true,
	})
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))

	return &LoginResult{
		Tokens: pair,
		Admin:  &AdminResponse{ID: admin.ID, Email: admin.Email, Name: admin.Name},
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked so it cannot be replayed.
func (s *AuthService) Refresh(ctx context.Context, input RefreshTokenInput) (*auth.TokenPair, error) {
	claims, err := s.tokens.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		return nil, tokenError(err)
	}

	revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check token blacklist: %w", err)
	}
	if revoked {
		return nil, tokenError(auth.ErrTokenBlacklisted)
	}

	userID, err := claims.GetUserUUID()
	if err != nil {
		return nil, tokenError(auth.ErrInvalidClaims)
	}
	if err := s.ensureAccountExists(ctx, userID, claims.IsAdmin); err != nil {
		return nil, err
	}

	pair, err := s.tokens.RefreshTokenPair(input.RefreshToken)
	if err != nil {
		return nil, tokenError(err)
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.logger.Error("Failed to revoke used refresh token", zap.Error(err))
	}

	s.logger.Info("Token refreshed", zap.String("user_id", userID.String()))
	return pair, nil
}

// Logout revokes the access token in use and, when given, its refresh token
func (s *AuthService) Logout(ctx context.Context, caller billing.Identity, input LogoutInput) error {
	if err := caller.RequireAuthenticated(); err != nil {
		return err
	}
	if input.AccessJTI != "" {
		if err := s.blacklist.AddToBlacklist(ctx, input.AccessJTI, input.AccessTTL); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	if input.RefreshToken != "" {
		claims, err := s.tokens.ValidateRefreshToken(input.RefreshToken)
		if err == nil && claims.UserID == caller.UserID.String() {
			if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
				return fmt.Errorf("revoke refresh token: %w", err)
			}
		}
	}

	s.logger.Info("User logged out", zap.String("user_id", caller.UserID.String()))
	return nil
}

// IsRevoked reports whether a token id was revoked by logout or refresh
func (s *AuthService) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return s.blacklist.IsBlacklisted(ctx, jti)
}

// ListResidents returns all residents, optionally filtered by complex (admin only)
func (s *AuthService) ListResidents(ctx context.Context, caller billing.Identity, complexName string) ([]ResidentResponse, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	var filter identity.ResidentFilter
	if complexName != "" {
		c, ok := identity.ParseComplex(complexName)
		if !ok {
			return nil, shared.NewDomainError(shared.CodeValidation, "Invalid complex: "+complexName)
		}
		filter.Complex = c
	}

	residents, err := s.residents.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]ResidentResponse, len(residents))
	for i, r := range residents {
		out[i] = ToResidentResponse(r)
	}
	return out, nil
}

// ImportResidents inserts residents from parsed rows (admin only). Rows with an
// invalid complex or profile, and rows whose flat or email is already taken,
// are skipped. The import fails when no row is valid.
func (s *AuthService) ImportResidents(ctx context.Context, caller billing.Identity, rows []ImportResidentRow) (*ImportResult, error) {
	if err := caller.RequireAdmin(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "No rows to import")
	}

	flats := make([]string, 0, len(rows))
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		flats = append(flats, strings.TrimSpace(row.FlatNumber))
		emails = append(emails, strings.ToLower(strings.TrimSpace(row.Email)))
	}
	takenFlats, takenEmails, err := s.residents.ExistingKeys(ctx, flats, emails)
	if err != nil {
		return nil, fmt.Errorf("check existing residents: %w", err)
	}
	if takenFlats == nil {
		takenFlats = map[string]bool{}
	}
	if takenEmails == nil {
		takenEmails = map[string]bool{}
	}

	result := &ImportResult{Skipped: []SkippedRow{}}
	var residents []*identity.Resident
	for i, row := range rows {
		skip := func(reason string) {
			result.Skipped = append(result.Skipped, SkippedRow{Row: i + 1, FlatNumber: row.FlatNumber, Reason: reason})
		}

		if _, ok := identity.ParseComplex(row.Complex); !ok {
			skip("invalid complex " + row.Complex)
			continue
		}
		resident, err := identity.NewResident(identity.ResidentProfile{
			FlatNumber: row.FlatNumber,
			Name:       row.Name,
			Email:      row.Email,
			Phone:      row.Phone,
			Complex:    row.Complex,
		}, row.Password)
		if err != nil {
			skip(err.Error())
			continue
		}
		if takenFlats[resident.FlatNumber] || takenEmails[resident.Email] {
			skip("flat number or email already exists")
			continue
		}

		// later rows in the same file may not reuse these keys
		takenFlats[resident.FlatNumber] = true
		takenEmails[resident.Email] = true
		residents = append(residents, resident)
	}

	for _, sr := range result.Skipped {
		s.logger.Info("Skipping resident row",
			zap.Int("row", sr.Row),
			zap.String("flat_number", sr.FlatNumber),
			zap.String("reason", sr.Reason))
	}

	if len(residents) == 0 {
		return nil, shared.NewDomainError(shared.CodeValidation, "No valid residents to insert")
	}
	if err := s.residents.CreateBatch(ctx, residents); err != nil {
		return nil, err
	}
	result.Created = len(residents)

	s.logger.Info("Residents imported",
		zap.Int("created", result.Created),
		zap.Int("skipped", len(result.Skipped)))
	return result, nil
}

func (s *AuthService) ensureAccountExists(ctx context.Context, userID uuid.UUID, isAdmin bool) error {
	var err error
	if isAdmin {
		_, err = s.admins.FindByID(ctx, userID)
	} else {
		_, err = s.residents.FindByID(ctx, userID)
	}
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewDomainError(shared.CodeUnauthorized, "Account no longer exists")
	}
	return err
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return shared.NewDomainError(shared.CodeUnauthorized, "Refresh token has expired")
	case errors.Is(err, auth.ErrMaxRefreshExceeded):
		return shared.NewDomainError(shared.CodeUnauthorized, "Maximum token refresh count exceeded. Please log in again")
	case errors.Is(err, auth.ErrTokenBlacklisted):
		return shared.NewDomainError(shared.CodeUnauthorized, "Refresh token has been revoked")
	default:
		return shared.NewDomainError(shared.CodeUnauthorized, "Invalid refresh token")
	}
}
