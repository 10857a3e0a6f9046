package directory

import (
	"context"
	"sync"

	"signalstore/internal/domain"
)

// Memory is an in-process directory. The zero value is not usable; call
// NewMemory.
type Memory struct {
	mu      sync.RWMutex
	bundles map[domain.UserID]domain.PreKeyBundle
}

// NewMemory returns an empty directory.
func NewMemory() *Memory {
	return &Memory{bundles: make(map[domain.UserID]domain.PreKeyBundle)}
}

// Exists reports whether id has published a bundle.
func (m *Memory) Exists(_ context.Context, id domain.UserID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.bundles[id]
	return ok, nil
}

// Publish stores bundle as the latest bundle of id.
func (m *Memory) Publish(_ context.Context, id domain.UserID, bundle domain.PreKeyBundle) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[id] = bundle
	return true, nil
}

// Fetch returns the latest bundle of id.
func (m *Memory) Fetch(_ context.Context, id domain.UserID) (domain.PreKeyBundle, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bundles[id]
	return b, ok, nil
}

// Len returns the number of published identities.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.bundles)
}

var _ domain.Directory = (*Memory)(nil)
