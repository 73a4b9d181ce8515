// Package cache collapses concurrent identical queries into one computation
// using expiring markers in a shared key-value store.
//
// Every key moves through three states:
//
//	ABSENT -> PENDING (short TTL) -> READY (long TTL)
//
// PENDING and READY both fall back to ABSENT when their TTL runs out, so a
// computation that never finishes only blocks other callers until the
// pending marker expires.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound is returned by Store.Get for an absent or expired key.
var ErrNotFound = errors.New("cache: key not found")

// Store is the shared key-value store behind the coalescer. Implementations
// must be safe for concurrent use, possibly from several processes.
type Store interface {
	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// SetWithTTL stores value under key, replacing any existing value.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Claim stores value under key only if the key is absent. It reports
	// whether this call created the entry.
	Claim(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// State is the lifecycle position of a cache key.
type State uint8

const (
	StateAbsent State = iota
	StatePending
	StateReady
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateReady:
		return "ready"
	default:
		return "absent"
	}
}

// entry is the value written to the store.
type entry struct {
	State State  `msgpack:"s"`
	Data  []byte `msgpack:"d,omitempty"`
}

func encodeEntry(e entry) ([]byte, error) {
	b, err := msgpack.Marshal(&e)
	if err != nil {
		return nil, fmt.Errorf("encode cache entry: %w", err)
	}
	return b, nil
}

func decodeEntry(b []byte) (entry, error) {
	var e entry
	if err := msgpack.Unmarshal(b, &e); err != nil {
		return entry{}, fmt.Errorf("decode cache entry: %w", err)
	}
	if e.State != StatePending && e.State != StateReady {
		return entry{}, fmt.Errorf("decode cache entry: unknown state %d", e.State)
	}
	return e, nil
}

// Inspect reports the state of key in store.
func Inspect(ctx context.Context, store Store, key string) (State, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return StateAbsent, nil
	}
	if err != nil {
		return StateAbsent, err
	}
	e, err := decodeEntry(raw)
	if err != nil {
		return StateAbsent, err
	}
	return e.State, nil
}
