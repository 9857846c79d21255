package chain

import (
	"context"
	"errors"
	"fmt"

	memorystore "github.com/avelara/coachctl/internal/adapters/state/memory"
	tomlstore "github.com/avelara/coachctl/internal/adapters/state/toml"
	"github.com/avelara/coachctl/internal/domain"
	"github.com/avelara/coachctl/internal/ports"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Store chains a durable primary state store with a fallback. A failing
// primary (read-only filesystem, corrupted file) degrades to the fallback
// instead of taking the whole client down. A missing key on the primary is
// authoritative and is never retried on the fallback.
type Store struct {
	primary  ports.StateStore
	fallback ports.StateStore
	log      *zap.Logger
}

var _ ports.StateStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary state store is nil")
	errNilFallbackStore = errors.New("fallback state store is nil")
)

func NewStore(primary ports.StateStore, fallback ports.StateStore, log *zap.Logger) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{primary: primary, fallback: fallback, log: log}, nil
}

// NewDurableWithMemoryFallback wires the default chain: TOML file store
// first, in-memory store when the file store cannot serve.
func NewDurableWithMemoryFallback(cfg *viper.Viper, log *zap.Logger) (*Store, error) {
	primary, err := tomlstore.NewStore(cfg)
	if err != nil {
		return nil, err
	}

	return NewStore(primary, memorystore.NewStore(), log)
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	s.log.Warn("primary state store put failed, using fallback",
		zap.String("key", key), zap.Error(err))

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary state put failed: %w; fallback state put failed: %w", err, fallbackErr)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}
	if errors.Is(fallbackErr, domain.ErrStateKeyMissing) {
		return "", err
	}

	return "", fmt.Errorf("primary state get failed: %w; fallback state get failed: %w", err, fallbackErr)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if err == nil {
		// Deletes clear both stores so stale fallback entries cannot
		// resurrect a cleared session.
		_ = s.fallback.Delete(ctx, key)
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	s.log.Warn("primary state store delete failed, using fallback",
		zap.String("key", key), zap.Error(err))

	fallbackErr := s.fallback.Delete(ctx, key)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("primary state delete failed: %w; fallback state delete failed: %w", err, fallbackErr)
}

// shouldSkipFallback reports errors the fallback cannot help with:
// a cancelled request, and a key that is simply absent.
func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, domain.ErrStateKeyMissing)
}
