package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bastiangx/spellserve/internal/logger"
	"github.com/bastiangx/spellserve/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

// Config holds the coalescer timings.
type Config struct {
	// PendingTTL bounds how long others wait on a computation that never
	// reports back.
	PendingTTL time.Duration
	// ReadyTTL is how long a computed value is served.
	ReadyTTL time.Duration
	// PollInterval is the pause between store reads while a key is pending.
	PollInterval time.Duration
}

// DefaultConfig returns 3s pending, 1h ready and a 10ms poll.
func DefaultConfig() Config {
	return Config{
		PendingTTL:   3 * time.Second,
		ReadyTTL:     time.Hour,
		PollInterval: 10 * time.Millisecond,
	}
}

// ComputeFunc produces the value for a key on a cache miss.
type ComputeFunc func() ([]byte, error)

// Coalescer serves values from a Store and makes sure that, per key, at most
// one caller computes while the others wait for its result. Callers in the
// same process share one lookup through singleflight; callers in other
// processes see the pending marker in the store.
//
// The guarantee is best effort. If the store is unreachable values are
// computed directly.
type Coalescer struct {
	store  Store
	cfg    Config
	flight singleflight.Group

	hits      atomic.Int64
	misses    atomic.Int64
	waits     atomic.Int64
	fallbacks atomic.Int64
}

// New creates a coalescer over store. Zero durations in cfg take their
// DefaultConfig values.
func New(store Store, cfg Config) *Coalescer {
	def := DefaultConfig()
	if cfg.PendingTTL <= 0 {
		cfg.PendingTTL = def.PendingTTL
	}
	if cfg.ReadyTTL <= 0 {
		cfg.ReadyTTL = def.ReadyTTL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	return &Coalescer{store: store, cfg: cfg}
}

// Do returns the value for key, computing it with fn if no other caller is
// already doing so. A caller whose ctx ends stops waiting, but a computation
// that has started always runs to completion and stores its result.
func (c *Coalescer) Do(ctx context.Context, key string, fn ComputeFunc) ([]byte, error) {
	ch := c.flight.DoChan(key, func() (any, error) {
		return c.resolve(context.WithoutCancel(ctx), key, fn)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// resolve runs the ABSENT/PENDING/READY state machine for key.
func (c *Coalescer) resolve(ctx context.Context, key string, fn ComputeFunc) ([]byte, error) {
	log := logger.Component("cache")
	waited := false

	for {
		raw, err := c.store.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			claimed, err := c.claim(ctx, key)
			if err != nil {
				return c.fallback(key, fn, err)
			}
			if claimed {
				c.record(&c.misses, metrics.OutcomeMiss)
				return c.compute(ctx, key, fn)
			}
			// Lost the race for the claim; read again after a pause.
			if err := c.sleep(ctx); err != nil {
				return nil, err
			}
			continue
		}
		if err != nil {
			return c.fallback(key, fn, err)
		}

		e, err := decodeEntry(raw)
		if err != nil {
			log.Warnf("Replacing unreadable entry for %s: %v", key, err)
			c.record(&c.misses, metrics.OutcomeMiss)
			return c.compute(ctx, key, fn)
		}

		switch e.State {
		case StateReady:
			c.record(&c.hits, metrics.OutcomeHit)
			return e.Data, nil
		case StatePending:
			if !waited {
				waited = true
				c.record(&c.waits, metrics.OutcomeWait)
				log.Debugf("Waiting on pending computation for %s", key)
			}
			if err := c.sleep(ctx); err != nil {
				return nil, err
			}
		}
	}
}

func (c *Coalescer) claim(ctx context.Context, key string) (bool, error) {
	marker, err := encodeEntry(entry{State: StatePending})
	if err != nil {
		return false, err
	}
	return c.store.Claim(ctx, key, marker, c.cfg.PendingTTL)
}

// compute runs fn and publishes its value. A failed computation removes the
// pending marker so waiters retry instead of sitting out the TTL.
func (c *Coalescer) compute(ctx context.Context, key string, fn ComputeFunc) ([]byte, error) {
	log := logger.Component("cache")

	data, err := fn()
	if err != nil {
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			log.Warnf("Failed to clear pending marker for %s: %v", key, delErr)
		}
		return nil, err
	}

	value, err := encodeEntry(entry{State: StateReady, Data: data})
	if err != nil {
		return nil, err
	}
	if err := c.store.SetWithTTL(ctx, key, value, c.cfg.ReadyTTL); err != nil {
		log.Warnf("Failed to store result for %s: %v", key, err)
	}
	return data, nil
}

// fallback computes without the store.
func (c *Coalescer) fallback(key string, fn ComputeFunc, cause error) ([]byte, error) {
	logger.Component("cache").Warnf("Cache store unavailable for %s, computing directly: %v", key, cause)
	c.record(&c.fallbacks, metrics.OutcomeFallback)
	return fn()
}

func (c *Coalescer) sleep(ctx context.Context) error {
	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Coalescer) record(counter *atomic.Int64, outcome string) {
	counter.Add(1)
	metrics.CacheRequests.WithLabelValues(outcome).Inc()
}

// Stats returns lookup counters since creation.
func (c *Coalescer) Stats() map[string]int {
	return map[string]int{
		"cacheHits":      int(c.hits.Load()),
		"cacheMisses":    int(c.misses.Load()),
		"cacheWaits":     int(c.waits.Load()),
		"cacheFallbacks": int(c.fallbacks.Load()),
	}
}
