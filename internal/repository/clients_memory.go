package repo

import (
	"context"
	"sync"
	"time"

	"pylos/internal/domain/client"
	"pylos/internal/errors"
)

type memoryEntry struct {
	client  client.Client
	expires time.Time
}

// MemoryClientStorage is used when no redis is configured.
type MemoryClientStorage struct {
	mu      sync.RWMutex
	clients map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryClientStorage(ttl time.Duration) *MemoryClientStorage {
	return &MemoryClientStorage{
		clients: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryClientStorage) Put(_ context.Context, c client.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry := memoryEntry{client: c}
	if m.ttl > 0 {
		entry.expires = m.now().Add(m.ttl)
	}
	m.clients[c.UUID] = entry
	return nil
}

func (m *MemoryClientStorage) Get(_ context.Context, clientUUID string) (client.Client, error) {
	m.mu.RLock()
	entry, ok := m.clients[clientUUID]
	m.mu.RUnlock()
	if !ok {
		return client.Client{}, errors.ErrClientNotFound
	}
	if !entry.expires.IsZero() && m.now().After(entry.expires) {
		m.mu.Lock()
		delete(m.clients, clientUUID)
		m.mu.Unlock()
		return client.Client{}, errors.ErrClientNotFound
	}
	return entry.client, nil
}

func (m *MemoryClientStorage) Delete(_ context.Context, clientUUID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clients, clientUUID)
	return nil
}
