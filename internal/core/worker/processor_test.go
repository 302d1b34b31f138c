package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferhaspert/belo-challenge/internal/adapter/storage/memory"
	"github.com/ferhaspert/belo-challenge/internal/core/domain"
)

type fakeSender struct {
	mu    sync.Mutex
	fail  bool
	calls []string
}

func (f *fakeSender) Send(_ context.Context, url, eventType string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, eventType+" "+url)
	if f.fail {
		return errors.New("receiver down")
	}
	return nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func setup(t *testing.T, payload string) (*Processor, *memory.Store, *fakeSender, *clock) {
	t.Helper()

	c := &clock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	store := memory.NewStore(memory.WithClock(c.Now))

	require.NoError(t, store.Atomic(context.Background(), func(ctx context.Context, tx domain.Tx) error {
		return tx.EnqueueEvent(ctx, domain.Event{
			ID:      uuid.New(),
			Type:    "transaction.confirmed",
			URL:     "http://hooks.local",
			Payload: []byte(payload),
		})
	}))

	sender := &fakeSender{}
	p := NewProcessor(store, sender, time.Millisecond)
	p.now = c.Now
	return p, store, sender, c
}

func TestProcessNext_Delivers(t *testing.T) {
	p, store, sender, _ := setup(t, `{"ok":true}`)

	processed, err := p.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []string{"transaction.confirmed http://hooks.local"}, sender.calls)
	assert.Equal(t, domain.EventCompleted, store.Events()[0].Status)

	processed, err = p.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessNext_RetriesWithBackoffThenFails(t *testing.T) {
	p, store, sender, c := setup(t, `{}`)
	sender.fail = true
	ctx := context.Background()

	for attempt := 0; attempt < MaxAttempts-1; attempt++ {
		processed, err := p.ProcessNext(ctx)
		require.NoError(t, err)
		require.True(t, processed)

		job := store.Events()[0]
		assert.Equal(t, domain.EventPending, job.Status)
		assert.Equal(t, attempt+1, job.Attempts)
		assert.Equal(t, c.now.Add(Backoff(attempt)), job.NextRunAt)

		processed, err = p.ProcessNext(ctx)
		require.NoError(t, err)
		assert.False(t, processed, "retry is not due before the backoff elapses")

		c.now = job.NextRunAt
	}

	processed, err := p.ProcessNext(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	assert.Equal(t, domain.EventFailed, store.Events()[0].Status)
	assert.Equal(t, MaxAttempts, sender.count())
}

func TestProcessNext_InvalidPayloadFails(t *testing.T) {
	p, store, sender, _ := setup(t, `not json`)

	processed, err := p.ProcessNext(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, domain.EventFailed, store.Events()[0].Status)
	assert.Zero(t, sender.count())
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 10*time.Second, Backoff(0))
	assert.Equal(t, 50*time.Second, Backoff(4))
}

func TestRun_StopsOnCancel(t *testing.T) {
	p, _, sender, _ := setup(t, `{}`)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}
