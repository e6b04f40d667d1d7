package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopfront/backend/internal/domain/shared"
)

// releaseScript deletes the lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisSubmissionGuard implements shared.SubmissionGuard with SET NX PX.
// Each acquisition writes a random token so a lock that expired and was
// taken by another process is never released by this one.
type RedisSubmissionGuard struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisSubmissionGuard creates a guard on an existing client.
func NewRedisSubmissionGuard(client *redis.Client) *RedisSubmissionGuard {
	return &RedisSubmissionGuard{
		client: client,
		tokens: make(map[string]string),
	}
}

// Acquire takes the lock for key if nobody holds it.
func (g *RedisSubmissionGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, guardKeyPrefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	g.mu.Lock()
	g.tokens[key] = token
	g.mu.Unlock()
	return true, nil
}

// Release frees the lock if this guard still owns it.
func (g *RedisSubmissionGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	token, ok := g.tokens[key]
	delete(g.tokens, key)
	g.mu.Unlock()

	if !ok {
		return nil
	}
	if err := releaseScript.Run(ctx, g.client, []string{guardKeyPrefix + key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Held reports whether the lock for key exists in redis, whoever owns it.
func (g *RedisSubmissionGuard) Held(ctx context.Context, key string) (bool, error) {
	n, err := g.client.Exists(ctx, guardKeyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check lock: %w", err)
	}
	return n > 0, nil
}

// Close is a no-op; the shared client is closed by its owner.
func (g *RedisSubmissionGuard) Close() error {
	return nil
}

var _ shared.SubmissionGuard = (*RedisSubmissionGuard)(nil)
