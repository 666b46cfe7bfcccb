package shared

import (
	"context"
	"time"
)

// ClaimStore hands out short-lived exclusive claims on string keys.
// A claim is used to keep two callers from working on the same external
// reference (for example a gateway transaction id) at the same time.
type ClaimStore interface {
	// Claim takes the key for ttl. It returns false when somebody else holds it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim taken by Claim. Releasing an unknown key is a no-op.
	Release(ctx context.Context, key string) error

	// Close releases resources held by the store
	Close() error
}
