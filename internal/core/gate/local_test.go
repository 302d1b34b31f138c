package gate_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferhaspert/belo-challenge/internal/core/gate"
)

func TestLocal_SecondCallerIsTurnedAway(t *testing.T) {
	g := gate.NewLocal()
	ctx := context.Background()

	release, err := g.TryAcquire(ctx, "a", "b")
	require.NoError(t, err)

	_, err = g.TryAcquire(ctx, "b")
	assert.ErrorIs(t, err, gate.ErrBusy)

	release()

	release2, err := g.TryAcquire(ctx, "b")
	require.NoError(t, err)
	release2()
}

func TestLocal_AllOrNothing(t *testing.T) {
	g := gate.NewLocal()
	ctx := context.Background()

	release, err := g.TryAcquire(ctx, "b")
	require.NoError(t, err)
	defer release()

	_, err = g.TryAcquire(ctx, "a", "b")
	require.ErrorIs(t, err, gate.ErrBusy)

	assert.False(t, g.Held("a"), "a failed multi-key acquire must not keep any key")
}

func TestLocal_DisjointKeysDoNotConflict(t *testing.T) {
	g := gate.NewLocal()
	ctx := context.Background()

	r1, err := g.TryAcquire(ctx, gate.AccountKey(uuid.New()), gate.AccountKey(uuid.New()))
	require.NoError(t, err)
	defer r1()

	r2, err := g.TryAcquire(ctx, gate.AccountKey(uuid.New()), gate.AccountKey(uuid.New()))
	require.NoError(t, err)
	defer r2()
}

func TestLocal_ReleaseIsIdempotent(t *testing.T) {
	g := gate.NewLocal()
	ctx := context.Background()

	release, err := g.TryAcquire(ctx, "a")
	require.NoError(t, err)
	release()

	other, err := g.TryAcquire(ctx, "a")
	require.NoError(t, err)

	// a stale second release must not free the new holder's key
	release()
	assert.True(t, g.Held("a"))
	other()
}

func TestLocal_DuplicateKeys(t *testing.T) {
	g := gate.NewLocal()

	release, err := g.TryAcquire(context.Background(), "a", "a")
	require.NoError(t, err)
	release()
	assert.False(t, g.Held("a"))
}

func TestLocal_ConcurrentExclusion(t *testing.T) {
	g := gate.NewLocal()
	ctx := context.Background()

	var inside, maxInside, busy int32
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			release, err := g.TryAcquire(ctx, "shared")
			if err != nil {
				atomic.AddInt32(&busy, 1)
				return
			}
			defer release()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			atomic.AddInt32(&inside, -1)
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), maxInside)
}

func TestLocal_CanceledContext(t *testing.T) {
	g := gate.NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.TryAcquire(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, g.Held("a"))
}
