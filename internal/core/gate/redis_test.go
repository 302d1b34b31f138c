package gate_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferhaspert/belo-challenge/internal/core/gate"
)

func setupRedisGate(t *testing.T) (*gate.Redis, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return gate.NewRedis(client, 5*time.Second), mr
}

func TestRedis_SecondCallerIsTurnedAway(t *testing.T) {
	g, _ := setupRedisGate(t)
	ctx := context.Background()

	release, err := g.TryAcquire(ctx, "ledger:account:1", "ledger:account:2")
	require.NoError(t, err)

	_, err = g.TryAcquire(ctx, "ledger:account:2")
	assert.ErrorIs(t, err, gate.ErrBusy)

	release()

	again, err := g.TryAcquire(ctx, "ledger:account:2")
	require.NoError(t, err)
	again()
}

func TestRedis_FailedAcquireReleasesEarlierKeys(t *testing.T) {
	g, mr := setupRedisGate(t)
	ctx := context.Background()

	holder, err := g.TryAcquire(ctx, "k2")
	require.NoError(t, err)
	defer holder()

	_, err = g.TryAcquire(ctx, "k1", "k2")
	require.ErrorIs(t, err, gate.ErrBusy)

	assert.False(t, mr.Exists("k1"), "k1 must be unlocked after the multi-key acquire failed")
}

func TestRedis_KeysExpire(t *testing.T) {
	g, mr := setupRedisGate(t)
	ctx := context.Background()

	_, err := g.TryAcquire(ctx, "k")
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	release, err := g.TryAcquire(ctx, "k")
	require.NoError(t, err)
	release()
}

func TestRedis_ServerDown(t *testing.T) {
	g, mr := setupRedisGate(t)
	mr.Close()

	_, err := g.TryAcquire(context.Background(), "k")
	require.Error(t, err)
}
