// Package gate provides non-blocking admission control for balance-changing operations.
//
// A Gate hands out exclusive admission for a set of keys. Acquisition never waits:
// if any key is already held the caller is turned away with ErrBusy and is expected
// to retry the whole request later.
package gate

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
)

// ErrBusy is returned when one of the requested keys is already held.
var ErrBusy = errors.New("gate: resource is busy")

// Release gives the keys back. It is safe to call more than once.
type Release func()

// Gate grants exclusive, non-queued admission for a set of keys.
type Gate interface {
	// TryAcquire takes every key or none of them.
	TryAcquire(ctx context.Context, keys ...string) (Release, error)
}

// AccountKey is the gate key guarding an account's balance.
func AccountKey(id uuid.UUID) string {
	return "ledger:account:" + id.String()
}

// normalizeKeys drops empty and duplicate keys and sorts the rest so that
// multi-key acquisition always happens in the same order.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))

	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}

	sort.Strings(out)
	return out
}
