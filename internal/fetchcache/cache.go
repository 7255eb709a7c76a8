// Package fetchcache is a keyed store of fetched values with request
// de-duplication and stale-while-revalidate refresh.
//
// Each key remembers the fetch function that first populated it, so a key can
// later be revalidated by name alone. Concurrent fetches for one key share a
// single call. A value that has outlived the TTL is still served while a
// background refresh runs, and a failed refresh never discards the previous
// value.
//
// A fetcher that could not reach its origin but still has something to show
// returns that value with an error wrapping ErrStandIn. The cache hands the
// stand-in to callers only while the key holds nothing better.
package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownKey is returned by Revalidate for a key that was never fetched.
var ErrUnknownKey = errors.New("fetchcache: unknown key")

// ErrStandIn marks a fetch that failed but returned a substitute value.
var ErrStandIn = errors.New("fetchcache: stand-in value")

// StandIn wraps cause so the cache treats the accompanying value as a
// substitute for a failed fetch.
func StandIn(cause error) error {
	return fmt.Errorf("%w: %w", ErrStandIn, cause)
}

// Fetcher loads the value for one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// State is a snapshot of one key.
type State[T any] struct {
	Data      T
	HasData   bool // Data holds a successfully fetched value
	IsLoading bool // a fetch is in flight
	IsError   bool // the most recent completed fetch failed
	StandIn   bool // Data is a substitute served while the origin is failing
	Err       error
	FetchedAt time.Time // when Data was fetched
}

// Options configures a Cache.
type Options struct {
	// TTL is how long a value is fresh. Zero means values never go stale
	// and are only replaced by Revalidate.
	TTL time.Duration

	// Idle evicts keys that have not been read for this long and have no
	// fetch in flight. Zero keeps every key. Call Close to stop eviction.
	Idle time.Duration

	Logger *slog.Logger
	Now    func() time.Time // defaults to time.Now
}

type entry[T any] struct {
	fetch     Fetcher[T]
	data      T
	hasData   bool
	standIn   bool
	dataSeq   uint64 // sequence number of the fetch that produced data
	fetchedAt time.Time
	err       error
	errSeq    uint64
	inflight  int
	lastRead  time.Time
}

// Cache is safe for concurrent use. The zero value is not usable; call New.
type Cache[T any] struct {
	ttl    time.Duration
	idle   time.Duration
	logger *slog.Logger
	now    func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry[T]
	seq     uint64

	stopOnce sync.Once
	done     chan struct{}
}

// New creates an empty cache.
func New[T any](opts Options) *Cache[T] {
	c := &Cache[T]{
		ttl:     opts.TTL,
		idle:    opts.Idle,
		logger:  opts.Logger,
		now:     opts.Now,
		entries: make(map[string]*entry[T]),
		done:    make(chan struct{}),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.idle > 0 {
		go c.cleanup()
	}
	return c
}

// Close stops idle eviction. Safe to call multiple times.
func (c *Cache[T]) Close() error {
	c.stopOnce.Do(func() { close(c.done) })
	return nil
}

// Get returns the value for key, calling fetch only when needed:
//
//   - a fresh value is returned as is;
//   - a stale value is returned immediately and refreshed in the background;
//   - with no value yet, the caller waits for a fetch, sharing it with any
//     concurrent caller of the same key. A stand-in result is returned
//     without error.
//
// fetch is remembered for later revalidation the first time key is seen.
func (c *Cache[T]) Get(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{fetch: fetch}
		c.entries[key] = e
	}
	e.lastRead = c.now()
	f := e.fetch
	if e.hasData {
		data, stale := e.data, c.isStale(e)
		c.mu.Unlock()
		if stale {
			c.refreshInBackground(ctx, key, f)
		}
		return data, nil
	}
	c.mu.Unlock()

	return c.wait(ctx, c.group.DoChan(key, c.run(ctx, key, f)), false)
}

// Revalidate forces a new fetch for key using its remembered fetcher. On
// success the cached value is replaced; on failure the previous value stays
// and the error is returned. A stand-in counts as a failure here: it replaces
// only another stand-in, and the error wrapping ErrStandIn is returned.
// Callers already waiting on an older fetch are unaffected.
func (c *Cache[T]) Revalidate(ctx context.Context, key string) (T, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok {
		e.lastRead = c.now()
	}
	c.mu.Unlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	// Detach key from the in-flight call so this one starts fresh.
	c.group.Forget(key)
	return c.wait(ctx, c.group.DoChan(key, c.run(ctx, key, e.fetch)), true)
}

// Peek returns the state of key without fetching.
func (c *Cache[T]) Peek(key string) (State[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return State[T]{}, false
	}
	return State[T]{
		Data:      e.data,
		HasData:   e.hasData,
		IsLoading: e.inflight > 0,
		IsError:   e.err != nil,
		StandIn:   e.standIn,
		Err:       e.err,
		FetchedAt: e.fetchedAt,
	}, true
}

// Has reports whether key has been requested before.
func (c *Cache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// Keys returns every known key in sorted order.
func (c *Cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of known keys.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// isStale reports whether e should be refreshed. A stand-in is always stale
// so the origin is retried on the next read.
func (c *Cache[T]) isStale(e *entry[T]) bool {
	return e.standIn || (c.ttl > 0 && c.now().Sub(e.fetchedAt) >= c.ttl)
}

func (c *Cache[T]) refreshInBackground(ctx context.Context, key string, fetch Fetcher[T]) {
	// DoChan's result channel is buffered, so nobody has to read it.
	c.group.DoChan(key, c.run(ctx, key, fetch))
}

// run wraps fetch for singleflight. The shared call is detached from the
// first caller's cancellation so one departing caller cannot fail the rest;
// values stored from ctx (trace spans, request ids) are kept.
func (c *Cache[T]) run(ctx context.Context, key string, fetch Fetcher[T]) func() (any, error) {
	shared := context.WithoutCancel(ctx)
	return func() (any, error) {
		seq := c.begin(key)
		data, err := fetch(shared)
		c.finish(key, seq, data, err)
		return data, err
	}
}

func (c *Cache[T]) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	if e, ok := c.entries[key]; ok {
		e.inflight++
	}
	return c.seq
}

// finish stores the outcome of fetch number seq. A result older than the one
// already stored is dropped, so a slow superseded fetch cannot overwrite a
// newer value. A stand-in is stored only over nothing or another stand-in.
func (c *Cache[T]) finish(key string, seq uint64, data T, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	e.inflight--

	standIn := errors.Is(err, ErrStandIn)
	if err != nil && seq > e.errSeq && seq > e.dataSeq {
		e.err, e.errSeq = err, seq
	}
	if err != nil && (!standIn || (e.hasData && !e.standIn)) {
		c.logger.Debug("fetchcache: fetch failed", "key", key, "error", err, "kept_previous", e.hasData)
		return
	}
	if seq < e.dataSeq {
		return
	}
	e.data, e.hasData, e.standIn, e.dataSeq = data, true, standIn, seq
	e.fetchedAt = c.now()
	if !standIn && e.errSeq < seq {
		e.err = nil
	}
}

// wait delivers the shared result. Unless strict, a stand-in is returned as
// a plain value.
func (c *Cache[T]) wait(ctx context.Context, ch <-chan singleflight.Result, strict bool) (T, error) {
	var zero T
	select {
	case res := <-ch:
		if res.Err != nil && (strict || !errors.Is(res.Err, ErrStandIn)) {
			return zero, res.Err
		}
		v, _ := res.Val.(T)
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Cache[T]) cleanup() {
	ticker := time.NewTicker(min(c.idle, time.Minute))
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.EvictIdle()
		}
	}
}

// EvictIdle drops keys unread for longer than the Idle option that have no
// fetch in flight, and returns how many it dropped. It does nothing when
// Idle is zero.
func (c *Cache[T]) EvictIdle() int {
	if c.idle <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.idle)
	n := 0
	for key, e := range c.entries {
		if e.inflight == 0 && e.lastRead.Before(cutoff) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}
