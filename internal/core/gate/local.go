package gate

import (
	"context"
	"sync"
)

// Local is an in-process Gate. It only coordinates goroutines of one process.
type Local struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocal() *Local {
	return &Local{held: make(map[string]struct{})}
}

// TryAcquire implements Gate.
func (g *Local) TryAcquire(ctx context.Context, keys ...string) (Release, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys = normalizeKeys(keys)

	g.mu.Lock()
	defer g.mu.Unlock()

	for _, k := range keys {
		if _, taken := g.held[k]; taken {
			return nil, ErrBusy
		}
	}

	for _, k := range keys {
		g.held[k] = struct{}{}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			for _, k := range keys {
				delete(g.held, k)
			}
		})
	}, nil
}

// Held reports whether key is currently admitted.
func (g *Local) Held(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.held[key]
	return ok
}
