// Package kvstore holds the key-value stores used for the embedding cache.
package kvstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrKeyNotFound is returned by Get when the key is absent.
var ErrKeyNotFound = errors.New("kvstore: key not found")

// sweepEvery is the number of writes between scans for expired entries.
const sweepEvery = 256

// MemoryStore is an in-process store. Expired entries are dropped on read and
// by a scan that runs every sweepEvery writes.
type MemoryStore struct {
	ttl     time.Duration
	entries sync.Map
	writes  atomic.Uint64
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryStore creates a store whose entries expire after ttl; 0 keeps them forever.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl}
}

// Get returns a copy of the value stored at key.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.entries.Load(key)
	if !ok {
		return nil, ErrKeyNotFound
	}
	e := v.(memoryEntry)
	if e.expired(time.Now()) {
		m.entries.CompareAndDelete(key, v)
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores a copy of value at key.
func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if m.ttl > 0 {
		e.expiresAt = time.Now().Add(m.ttl)
	}
	m.entries.Store(key, e)
	if m.ttl > 0 && m.writes.Add(1)%sweepEvery == 0 {
		m.sweep(time.Now())
	}
	return nil
}

func (m *MemoryStore) sweep(now time.Time) {
	m.entries.Range(func(k, v any) bool {
		if v.(memoryEntry).expired(now) {
			m.entries.CompareAndDelete(k, v)
		}
		return true
	})
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}
