// Package cache provides the in-memory write-through proxy over a file store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"signalstore/internal/domain"
	"signalstore/internal/metrics"
	"signalstore/internal/store"
)

type entry struct {
	raw     json.RawMessage
	present bool
}

// Proxy is a write-through cache in front of a domain.KeyValueStore.
//
// The first Get of a key reads through to the backend and caches the result,
// absence included. Afterwards the cached entry is authoritative and the key
// is never read from the backend again. Writes update the cache and persist
// synchronously; a failed persist restores the previous entry, or evicts
// it when the backend outcome is unknown.
type Proxy struct {
	backend domain.KeyValueStore
	log     *slog.Logger
	metrics *metrics.CacheMetrics

	mu      sync.RWMutex
	entries map[string]entry
}

// New returns a proxy over backend. A nil logger means slog.Default and nil
// metrics are created unregistered.
func New(backend domain.KeyValueStore, log *slog.Logger, m *metrics.CacheMetrics) *Proxy {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.NewCacheMetrics(nil, "")
	}
	return &Proxy{
		backend: backend,
		log:     log.With("component", "cache"),
		metrics: m,
		entries: make(map[string]entry),
	}
}

// Get returns the raw JSON value of key and whether it exists.
func (p *Proxy) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if key == "" {
		return nil, false, fmt.Errorf("%w: empty key", domain.ErrInvalidKey)
	}

	p.mu.RLock()
	e, ok := p.entries[key]
	p.mu.RUnlock()
	if ok {
		p.metrics.Hits.Inc()
		return e.raw, e.present, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another caller may have filled it while we waited for the lock.
	if e, ok := p.entries[key]; ok {
		p.metrics.Hits.Inc()
		return e.raw, e.present, nil
	}

	p.metrics.Misses.Inc()
	raw, present, err := p.backend.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	p.entries[key] = entry{raw: raw, present: present}
	p.log.Debug("cache fill", "key", key, "present", present)
	return raw, present, nil
}

// Set validates value, caches it and persists it.
func (p *Proxy) Set(ctx context.Context, key string, value any) error {
	raw, err := store.EncodeValue(key, value)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	prev, had := p.entries[key]
	p.entries[key] = entry{raw: raw, present: true}
	if err := p.backend.Set(ctx, key, raw); err != nil {
		p.rollback(key, prev, had, err)
		return err
	}
	return nil
}

// Remove drops key from the cache and the backend.
func (p *Proxy) Remove(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty key", domain.ErrInvalidKey)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(ctx, key)
}

// Keys returns the union of cached and persisted keys that currently hold a
// value, sorted.
func (p *Proxy) Keys(ctx context.Context) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.keysLocked(ctx)
}

// RemovePrefix removes every key starting with prefix and returns how many
// were removed. It scans the whole namespace.
func (p *Proxy) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	if prefix == "" {
		return 0, fmt.Errorf("%w: empty prefix", domain.ErrInvalidKey)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	keys, err := p.keysLocked(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		if err := p.removeLocked(ctx, k); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Invalidate forgets every cached entry. The next Get of each key reads
// through again.
func (p *Proxy) Invalidate() {
	p.mu.Lock()
	p.entries = make(map[string]entry)
	p.mu.Unlock()
}

func (p *Proxy) removeLocked(ctx context.Context, key string) error {
	prev, had := p.entries[key]
	p.entries[key] = entry{}
	if err := p.backend.Remove(ctx, key); err != nil {
		p.rollback(key, prev, had, err)
		return err
	}
	return nil
}

func (p *Proxy) keysLocked(ctx context.Context) ([]string, error) {
	persisted, err := p.backend.Keys(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(persisted)+len(p.entries))
	for _, k := range persisted {
		set[k] = struct{}{}
	}
	for k, e := range p.entries {
		if e.present {
			set[k] = struct{}{}
		} else {
			delete(set, k)
		}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// rollback undoes a cached write whose persist failed. When the failure is
// a cancelled or expired context the backend outcome is unknown, so the
// entry is evicted and the next Get reads through.
func (p *Proxy) rollback(key string, prev entry, had bool, err error) {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		delete(p.entries, key)
		p.log.Debug("cache evict", "key", key, "error", err)
		return
	}
	if had {
		p.entries[key] = prev
	} else {
		delete(p.entries, key)
	}
	p.log.Debug("cache rollback", "key", key)
}

var _ domain.KeyValueStore = (*Proxy)(nil)
