package lock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	unlockScript = `if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('del', KEYS[1]) else return 0 end`
	extendScript = `if redis.call('get', KEYS[1]) == ARGV[1] then return redis.call('pexpire', KEYS[1], ARGV[2]) else return 0 end`
)

// store is the token-guarded key storage behind RedisLocker.
type store interface {
	acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	release(ctx context.Context, key, token string) error
}

type redisStore struct {
	rdb redis.UniversalClient
}

func (s redisStore) acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	return s.rdb.SetNX(ctx, key, token, ttl).Result()
}

func (s redisStore) extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	n, err := s.rdb.Eval(ctx, extendScript, []string{key}, token, ttl.Milliseconds()).Int64()
	return n == 1, err
}

func (s redisStore) release(ctx context.Context, key, token string) error {
	return s.rdb.Eval(ctx, unlockScript, []string{key}, token).Err()
}

// RedisLocker shares post locks across instances with SET NX and a
// compare-and-delete release. A held lock is extended every ttl/3, so an
// operation may run longer than ttl while its instance is alive.
type RedisLocker struct {
	store     store
	prefix    string
	ttl       time.Duration
	retryWait time.Duration
}

// NewRedisLocker holds keys for ttl past the last refresh. ttl bounds how long
// a crashed instance keeps a post locked.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	return newRedisLocker(redisStore{rdb: rdb}, ttl)
}

func newRedisLocker(s store, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		store:     s,
		prefix:    "postbridge:lock:",
		ttl:       ttl,
		retryWait: 100 * time.Millisecond,
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	k := l.prefix + key
	token := uuid.NewString()

	for {
		ok, err := l.store.acquire(ctx, k, token, l.ttl)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ErrNotAcquired
		case <-time.After(l.retryWait):
		}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.keepAlive(k, token, done)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			wg.Wait()
			if err := l.store.release(context.WithoutCancel(ctx), k, token); err != nil {
				slog.Warn("failed to release lock", "key", k, "error", err)
			}
		})
	}, nil
}

func (l *RedisLocker) keepAlive(key, token string, done <-chan struct{}) {
	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.ttl/3)
			ok, err := l.store.extend(ctx, key, token, l.ttl)
			cancel()
			if err != nil {
				slog.Warn("failed to extend lock", "key", key, "error", err)
				continue
			}
			if !ok {
				slog.Error("lock expired while held", "key", key)
				return
			}
		}
	}
}
