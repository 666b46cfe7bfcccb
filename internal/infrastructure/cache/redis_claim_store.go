package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Nitish8696/flatgurugram/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultClaimPrefix = "flat:claim:"

// releaseScript deletes the key only while it still holds our token, so an
// expired claim re-taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisClaimStore implements ClaimStore with SET NX PX, shared by every
// instance of the service.
type RedisClaimStore struct {
	client    redis.UniversalClient
	keyPrefix string
	ownsConn  bool

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisClaimStore creates a claim store on an existing Redis client
func NewRedisClaimStore(client redis.UniversalClient, keyPrefix string) *RedisClaimStore {
	if keyPrefix == "" {
		keyPrefix = defaultClaimPrefix
	}
	return &RedisClaimStore{
		client:    client,
		keyPrefix: keyPrefix,
		tokens:    make(map[string]string),
	}
}

// Claim takes key for ttl
func (s *RedisClaimStore) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	if ok {
		s.mu.Lock()
		s.tokens[key] = token
		s.mu.Unlock()
	}
	return ok, nil
}

// Release drops a claim held by this instance
func (s *RedisClaimStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	token, ok := s.tokens[key]
	delete(s.tokens, key)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, s.client, []string{s.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client when the store opened it
func (s *RedisClaimStore) Close() error {
	if !s.ownsConn {
		return nil
	}
	return s.client.Close()
}

var _ shared.ClaimStore = (*RedisClaimStore)(nil)
