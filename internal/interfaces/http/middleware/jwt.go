package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Nitish8696/flatgurugram/internal/domain/billing"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/auth"
	"github.com/Nitish8696/flatgurugram/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey     = "jwt_claims"
	JWTUserIDKey     = "jwt_user_id"
	JWTFlatNumberKey = "jwt_flat_number"
	JWTIsAdminKey    = "jwt_is_admin"
	AuthHeaderKey    = "Authorization"
	BearerPrefix     = "Bearer "
)

// RevocationChecker reports whether an access token id has been logged out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// JWTMiddlewareConfig holds configuration for JWT middleware
type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// Revocations is optional; nil skips the logout check
	Revocations RevocationChecker
	SkipPaths   []string
	// Optional lets requests without an Authorization header through anonymously
	Optional bool
	Logger   *zap.Logger
}

// JWTAuthMiddleware validates the bearer access token and stores the caller in the context
func JWTAuthMiddleware(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		for _, skip := range cfg.SkipPaths {
			if c.Request.URL.Path == skip {
				c.Next()
				return
			}
		}

		if cfg.Optional && c.GetHeader(AuthHeaderKey) == "" {
			c.Next()
			return
		}

		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, log, auth.ErrInvalidToken, "Missing or malformed authorization header")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(tokenString)
		if err != nil {
			abortUnauthorized(c, log, err, "Token validation failed")
			return
		}
		if _, err := claims.GetUserUUID(); err != nil {
			abortUnauthorized(c, log, auth.ErrMissingUserID, "Token carries no user")
			return
		}

		if cfg.Revocations != nil && claims.ID != "" {
			revoked, err := cfg.Revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// fail open: the token signature and expiry were already verified
				log.Error("Failed to check token revocation", zap.String("jti", claims.ID), zap.Error(err))
			} else if revoked {
				abortUnauthorized(c, log, auth.ErrTokenBlacklisted, "Token has been revoked")
				return
			}
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Set(JWTFlatNumberKey, claims.FlatNumber)
		c.Set(JWTIsAdminKey, claims.IsAdmin)

		ctx := c.Request.Context()
		ctx, reqLog := logger.WithUserID(ctx, logger.FromContext(ctx), claims.UserID)
		if claims.FlatNumber != "" {
			ctx, _ = logger.WithFlatNumber(ctx, reqLog, claims.FlatNumber)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin rejects callers whose token is not an admin token.
// It must run after JWTAuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(JWTIsAdminKey) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_FORBIDDEN",
					"message": "Admin access required",
				},
			})
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, log *zap.Logger, err error, message string) {
	log.Warn("JWT authentication failed",
		zap.Error(err),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
	)

	code, msg := "ERR_UNAUTHORIZED", "Authentication required"
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		code, msg = "ERR_TOKEN_EXPIRED", "Token has expired"
	case errors.Is(err, auth.ErrTokenBlacklisted):
		code, msg = "ERR_TOKEN_REVOKED", "Token has been revoked"
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidTokenType),
		errors.Is(err, auth.ErrTokenNotYetValid), errors.Is(err, auth.ErrMissingUserID),
		errors.Is(err, auth.ErrInvalidClaims):
		code, msg = "ERR_TOKEN_INVALID", "Invalid token"
	}

	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": msg,
		},
	})
}

// GetJWTClaims retrieves JWT claims from gin.Context
func GetJWTClaims(c *gin.Context) *auth.Claims {
	if claims, exists := c.Get(JWTClaimsKey); exists {
		if jwtClaims, ok := claims.(*auth.Claims); ok {
			return jwtClaims
		}
	}
	return nil
}

// GetIdentity builds the caller identity from the validated claims.
// Unauthenticated requests yield the zero Identity.
func GetIdentity(c *gin.Context) billing.Identity {
	claims := GetJWTClaims(c)
	if claims == nil {
		return billing.Identity{}
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return billing.Identity{}
	}
	return billing.Identity{UserID: userID, IsAdmin: claims.IsAdmin}
}
