package gate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// DefaultLockExpiry bounds how long a crashed holder can keep a key.
const DefaultLockExpiry = 10 * time.Second

// Redis is a Gate shared by every instance pointed at the same Redis.
// Each key maps to a redsync mutex acquired with a single try.
type Redis struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedis(client redis.UniversalClient, expiry time.Duration) *Redis {
	if expiry <= 0 {
		expiry = DefaultLockExpiry
	}

	return &Redis{
		rs:     redsync.New(goredis.NewPool(client)),
		expiry: expiry,
	}
}

// TryAcquire implements Gate.
func (g *Redis) TryAcquire(ctx context.Context, keys ...string) (Release, error) {
	keys = normalizeKeys(keys)
	acquired := make([]*redsync.Mutex, 0, len(keys))

	for _, k := range keys {
		m := g.rs.NewMutex(k, redsync.WithExpiry(g.expiry), redsync.WithTries(1))

		if err := m.LockContext(ctx); err != nil {
			unlockAll(context.WithoutCancel(ctx), acquired)

			if isContention(err) {
				return nil, ErrBusy
			}
			return nil, fmt.Errorf("gate: acquire %s: %w", k, err)
		}

		acquired = append(acquired, m)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			unlockAll(context.WithoutCancel(ctx), acquired)
		})
	}, nil
}

func unlockAll(ctx context.Context, mutexes []*redsync.Mutex) {
	for i := len(mutexes) - 1; i >= 0; i-- {
		if ok, err := mutexes[i].UnlockContext(ctx); !ok || err != nil {
			slog.Warn("gate: failed to release lock", "key", mutexes[i].Name(), "error", err)
		}
	}
}

// isContention separates "someone else holds it" from transport failures.
func isContention(err error) bool {
	var taken *redsync.ErrTaken
	if errors.As(err, &taken) || errors.Is(err, redsync.ErrFailed) {
		return true
	}
	return strings.Contains(err.Error(), "lock already taken")
}
