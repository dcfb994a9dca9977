package storage

import (
	"errors"
	"maps"
	"sync"
	"time"
)

var (
	// ErrNoSnapshot indicates no configuration has been stored yet.
	ErrNoSnapshot = errors.New("no configuration has been resolved yet")
	// ErrInvalidSnapshot indicates the provided values cannot be stored.
	ErrInvalidSnapshot = errors.New("configuration values must not be nil")
)

// Snapshot is one resolved configuration and the time it was resolved.
type Snapshot struct {
	Values     map[string]any
	ResolvedAt time.Time
}

// Storage provides access to the most recently resolved configuration.
type Storage interface {
	GetSnapshot() (Snapshot, error)
	SetSnapshot(values map[string]any, resolvedAt time.Time) error
}

// MemoryStorage keeps the snapshot in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	snapshot Snapshot
	set      bool
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// GetSnapshot returns a copy of the current snapshot.
func (s *MemoryStorage) GetSnapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return Snapshot{}, ErrNoSnapshot
	}
	return Snapshot{
		Values:     maps.Clone(s.snapshot.Values),
		ResolvedAt: s.snapshot.ResolvedAt,
	}, nil
}

// SetSnapshot replaces the current snapshot with a copy of values.
func (s *MemoryStorage) SetSnapshot(values map[string]any, resolvedAt time.Time) error {
	if values == nil {
		return ErrInvalidSnapshot
	}

	snapshot := Snapshot{
		Values:     maps.Clone(values),
		ResolvedAt: resolvedAt,
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.set = true
	s.mu.Unlock()

	return nil
}
