package store

import (
	"context"
	stderrors "errors"
	"fmt"
	"maps"
	"sync"

	"talentsparkle/internal/config"
)

// ErrNotFound is returned by Persister.Load when a key was never saved
var ErrNotFound = stderrors.New("store: key not found")

// Persister stores one JSON blob per collection key. Save replaces the
// previous value.
type Persister interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// Blob is one keyed value written by a batch save
type Blob struct {
	Key   string
	Value []byte
}

// BatchSaver is implemented by persisters that can write several blobs
// atomically. The store uses it for mutations that touch more than one
// collection; other persisters get one Save per blob.
type BatchSaver interface {
	SaveAll(ctx context.Context, blobs []Blob) error
}

// NewPersister builds the persister selected by cfg.Backend
func NewPersister(ctx context.Context, cfg config.StoreConfig) (Persister, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryPersister(), nil
	case "sqlite":
		db, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
		}
		return NewSQLPersister(ctx, db, SQLite)
	case "postgres":
		db, err := OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		return NewSQLPersister(ctx, db, Postgres)
	case "redis":
		return NewRedisPersister(ctx, cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
}

// MemoryPersister keeps blobs in process memory
type MemoryPersister struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	saves int
}

func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{blobs: make(map[string][]byte)}
}

func (m *MemoryPersister) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.blobs[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), value...), nil
}

func (m *MemoryPersister) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = append([]byte(nil), value...)
	m.saves++
	return nil
}

func (m *MemoryPersister) SaveAll(_ context.Context, blobs []Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range blobs {
		m.blobs[b.Key] = append([]byte(nil), b.Value...)
		m.saves++
	}
	return nil
}

func (m *MemoryPersister) Close() error { return nil }

// Saves reports how many writes were made
func (m *MemoryPersister) Saves() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.saves
}

// Blobs returns a copy of everything saved so far
func (m *MemoryPersister) Blobs() map[string][]byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return maps.Clone(m.blobs)
}
