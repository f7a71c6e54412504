package fallback

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/reportconsole/internal/storage"
)

// Store keys of the offline snapshots.
const (
	KeyReports   = "reports.fallback"
	KeyUsers     = "users.fallback"
	KeyDatabases = "databases.fallback"
)

// Snapshot is a JSON value kept under one store key. Until the first save it
// reads as whatever seed returns. seed runs at most once; every read decodes a
// fresh copy of its result.
type Snapshot[T any] struct {
	store storage.Store
	key   string
	seed  func() (T, error)

	mu     sync.Mutex
	seeded []byte
}

func NewSnapshot[T any](store storage.Store, key string, seed func() (T, error)) *Snapshot[T] {
	return &Snapshot[T]{store: store, key: key, seed: seed}
}

func (s *Snapshot[T]) Key() string {
	return s.key
}

// Load returns the stored value. An unreadable entry is replaced by the seed.
func (s *Snapshot[T]) Load(ctx context.Context) (T, bool, error) {
	var v T
	raw, found, err := s.store.Get(ctx, s.key)
	if err != nil {
		return v, false, fmt.Errorf("failed to load %s: %w", s.key, err)
	}
	if found && raw != "" {
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v, true, nil
		}
	}
	if s.seed == nil {
		return v, false, nil
	}
	v, err = s.seedValue()
	return v, false, err
}

func (s *Snapshot[T]) seedValue() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v T
	if s.seeded == nil {
		seed, err := s.seed()
		if err != nil {
			return v, err
		}
		data, err := json.Marshal(seed)
		if err != nil {
			return v, fmt.Errorf("failed to encode seed of %s: %w", s.key, err)
		}
		s.seeded = data
	}
	if err := json.Unmarshal(s.seeded, &v); err != nil {
		return v, fmt.Errorf("failed to decode seed of %s: %w", s.key, err)
	}
	return v, nil
}

func (s *Snapshot[T]) Save(ctx context.Context, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", s.key, err)
	}
	if err := s.store.Set(ctx, s.key, string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.key, err)
	}
	return nil
}

// Update loads the value, applies fn and saves the result.
func (s *Snapshot[T]) Update(ctx context.Context, fn func(*T) error) (T, error) {
	v, _, err := s.Load(ctx)
	if err != nil {
		return v, err
	}
	if err := fn(&v); err != nil {
		return v, err
	}
	return v, s.Save(ctx, v)
}
