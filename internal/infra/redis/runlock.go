package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

const defaultLockTTL = 10 * time.Minute

// releaseScript deletes the lock only when the holder token matches,
// so an expired-and-reacquired lock is never released by the old run.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RunLock is a best-effort per-destination mutex for callers that
// schedule concurrent pipeline invocations. The pipeline core does not
// require it; it exists so external schedulers can serialize runs
// against the same destination.
type RunLock struct {
	client   *goredis.Client
	ttl      time.Duration
	newToken func() string
}

func NewRunLock(client *goredis.Client, ttl time.Duration) (*RunLock, error) {
	return newRunLock(client, ttl, uuid.NewString)
}

func newRunLock(client *goredis.Client, ttl time.Duration, tokenFn func() string) (*RunLock, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if tokenFn == nil {
		tokenFn = uuid.NewString
	}

	return &RunLock{
		client:   client,
		ttl:      ttl,
		newToken: tokenFn,
	}, nil
}

// Acquire claims the destination lock. Returns the holder token and
// whether the claim succeeded; a held lock is not waited on.
func (l *RunLock) Acquire(ctx context.Context, destination string) (string, bool, error) {
	if l == nil || l.client == nil {
		return "", false, fmt.Errorf("run lock is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(destination))
	if normalized == "" {
		return "", false, fmt.Errorf("destination is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	token := l.newToken()
	acquired, err := l.client.SetNX(ctx, lockKey(normalized), token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !acquired {
		return "", false, nil
	}
	return token, true, nil
}

// Release frees the destination lock if this holder still owns it.
func (l *RunLock) Release(ctx context.Context, destination, token string) error {
	if l == nil || l.client == nil {
		return fmt.Errorf("run lock is not initialized")
	}

	normalized := strings.ToLower(strings.TrimSpace(destination))
	if normalized == "" {
		return fmt.Errorf("destination is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if err := releaseScript.Run(ctx, l.client, []string{lockKey(normalized)}, token).Err(); err != nil && err != goredis.Nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

func lockKey(destination string) string {
	return "etl:runlock:" + destination
}
