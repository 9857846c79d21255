package ports

import "context"

// StateStore is the durable key-value store holding the token, the user
// cache, the locale preference and the playground journal. One writer
// (this process) is assumed.
type StateStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
