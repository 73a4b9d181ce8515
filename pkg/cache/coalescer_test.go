package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bastiangx/spellserve/pkg/cache"
	"github.com/bastiangx/spellserve/pkg/store"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.FatalLevel)
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func fastConfig() cache.Config {
	return cache.Config{
		PendingTTL:   3 * time.Second,
		ReadyTTL:     time.Hour,
		PollInterval: 2 * time.Millisecond,
	}
}

// brokenStore fails every operation.
type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (brokenStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return errStoreDown
}
func (brokenStore) Claim(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, errStoreDown
}
func (brokenStore) Delete(context.Context, string) error { return errStoreDown }

func TestCoalescerMissThenHit(t *testing.T) {
	st := openStore(t)
	c := cache.New(st, fastConfig())
	ctx := context.Background()

	var calls atomic.Int32
	fn := func() ([]byte, error) {
		calls.Add(1)
		return []byte("result"), nil
	}

	got, err := c.Do(ctx, "/CAT?distance=0", fn)
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), got)

	got, err = c.Do(ctx, "/CAT?distance=0", fn)
	require.NoError(t, err)
	assert.Equal(t, []byte("result"), got)

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, c.Stats()["cacheHits"])
	assert.Equal(t, 1, c.Stats()["cacheMisses"])

	state, err := cache.Inspect(ctx, st, "/CAT?distance=0")
	require.NoError(t, err)
	assert.Equal(t, cache.StateReady, state)
}

func TestCoalescerConcurrentCallersComputeOnce(t *testing.T) {
	st := openStore(t)
	c := cache.New(st, fastConfig())

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("slow"), nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]byte, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := c.Do(context.Background(), "k", fn)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, []byte("slow"), r)
	}
}

// Two coalescers over one store stand in for two processes sharing it.
func TestCoalescerSharedStoreAcrossInstances(t *testing.T) {
	st := openStore(t)
	a := cache.New(st, fastConfig())
	b := cache.New(st, fastConfig())

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fn := func() ([]byte, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return []byte("shared"), nil
	}

	var wg sync.WaitGroup
	var fromA, fromB []byte
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		fromA, err = a.Do(context.Background(), "k", fn)
		assert.NoError(t, err)
	}()

	<-started
	state, err := cache.Inspect(context.Background(), st, "k")
	require.NoError(t, err)
	assert.Equal(t, cache.StatePending, state)

	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		fromB, err = b.Do(context.Background(), "k", fn)
		assert.NoError(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []byte("shared"), fromA)
	assert.Equal(t, []byte("shared"), fromB)
	assert.Equal(t, 1, b.Stats()["cacheWaits"])
	assert.Equal(t, 1, b.Stats()["cacheHits"])
}

func TestCoalescerStalePendingSelfHeals(t *testing.T) {
	st := openStore(t)
	cfg := fastConfig()
	cfg.PendingTTL = time.Second
	c := cache.New(st, cfg)

	// A computer that stalls for the whole test leaves its marker behind.
	// Cleanups run in reverse, so it is released and finished before the
	// store closes.
	stall := make(chan struct{})
	stalled := make(chan struct{})
	t.Cleanup(func() {
		close(stall)
		<-stalled
	})
	crashed := cache.New(st, cfg)
	go func() {
		defer close(stalled)
		_, _ = crashed.Do(context.Background(), "k", func() ([]byte, error) {
			<-stall
			return nil, errors.New("stalled")
		})
	}()

	require.Eventually(t, func() bool {
		s, err := cache.Inspect(context.Background(), st, "k")
		return err == nil && s == cache.StatePending
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := c.Do(ctx, "k", func() ([]byte, error) { return []byte("recovered"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), got)
	assert.Equal(t, 1, c.Stats()["cacheWaits"])
	assert.Equal(t, 1, c.Stats()["cacheMisses"])
}

func TestCoalescerCallerContextCancelled(t *testing.T) {
	st := openStore(t)
	c := cache.New(st, fastConfig())

	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Do(context.Background(), "k", func() ([]byte, error) {
			<-release
			return []byte("late"), nil
		})
	}()

	require.Eventually(t, func() bool {
		s, err := cache.Inspect(context.Background(), st, "k")
		return err == nil && s == cache.StatePending
	}, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Do(ctx, "k", func() ([]byte, error) { return []byte("unused"), nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The computation itself is not cancelled.
	close(release)
	<-done
	state, err := cache.Inspect(context.Background(), st, "k")
	require.NoError(t, err)
	assert.Equal(t, cache.StateReady, state)
}

func TestCoalescerComputeErrorClearsPending(t *testing.T) {
	st := openStore(t)
	c := cache.New(st, fastConfig())
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := c.Do(ctx, "k", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	state, err := cache.Inspect(ctx, st, "k")
	require.NoError(t, err)
	assert.Equal(t, cache.StateAbsent, state)

	got, err := c.Do(ctx, "k", func() ([]byte, error) { return []byte("ok"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), got)
}

func TestCoalescerFallsBackWhenStoreDown(t *testing.T) {
	c := cache.New(brokenStore{}, fastConfig())

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		got, err := c.Do(context.Background(), "k", func() ([]byte, error) {
			calls.Add(1)
			return []byte("direct"), nil
		})
		require.NoError(t, err)
		assert.Equal(t, []byte("direct"), got)
	}

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, 3, c.Stats()["cacheFallbacks"])
}

func TestCoalescerReplacesCorruptEntry(t *testing.T) {
	st := openStore(t)
	ctx := context.Background()
	require.NoError(t, st.SetWithTTL(ctx, "k", []byte{0xc1}, time.Hour))

	c := cache.New(st, fastConfig())
	got, err := c.Do(ctx, "k", func() ([]byte, error) { return []byte("fresh"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), got)

	state, err := cache.Inspect(ctx, st, "k")
	require.NoError(t, err)
	assert.Equal(t, cache.StateReady, state)
}

func TestNewAppliesDefaults(t *testing.T) {
	c := cache.New(openStore(t), cache.Config{})
	got, err := c.Do(context.Background(), "k", func() ([]byte, error) { return []byte("v"), nil })
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "absent", cache.StateAbsent.String())
	assert.Equal(t, "pending", cache.StatePending.String())
	assert.Equal(t, "ready", cache.StateReady.String())
}
