package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/astroeyes/authcore/internal/errors"
)

const (
	redisLockPrefix       = "authcore:device-lock:"
	redisLockRetryInitial = 5 * time.Millisecond
	redisLockRetryMax     = 100 * time.Millisecond
)

// releaseScript deletes the lock only while it still holds our token, so an
// expired lock taken over by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// redisDeviceLocker implements DeviceLocker with SET NX PX so that every
// instance sharing the Redis server is serialized.
type redisDeviceLocker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisDeviceLocker creates a DeviceLocker backed by Redis. ttl bounds how
// long a crashed holder can keep a device locked.
func NewRedisDeviceLocker(client redis.UniversalClient, ttl time.Duration) DeviceLocker {
	return &redisDeviceLocker{client: client, ttl: ttl}
}

// OpenRedisClient parses redisURL and pings the server.
func OpenRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// Lock polls SET NX with capped exponential backoff until acquired or ctx is done.
func (l *redisDeviceLocker) Lock(ctx context.Context, subjectID uuid.UUID, deviceID string) (func(), error) {
	key := redisLockPrefix + lockKey(subjectID, deviceID)
	token := uuid.NewString()
	wait := redisLockRetryInitial

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, apperrors.Join(apperrors.ErrUnavailable, err)
		}
		if ok {
			break
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		wait = min(wait*2, redisLockRetryMax)
	}

	return func() {
		// Released on a fresh context so a cancelled request still frees the lock.
		releaseCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err()
	}, nil
}
