package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
)

// Store is an in-memory StateStore. It backs tests and serves as the
// fallback when the durable store is unavailable; contents do not survive
// the process.
type Store struct {
	mu      sync.RWMutex
	entries map[string]string
}

var _ ports.StateStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{entries: map[string]string{}}
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = value
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	if !ok {
		return "", fmt.Errorf("state key %q: %w", key, domain.ErrStateKeyMissing)
	}

	return value, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}
