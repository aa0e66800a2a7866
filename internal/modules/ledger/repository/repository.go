package repository

import "context"

// Repository is the durable set of item GUIDs this tool has already
// emitted. It is append-only: entries are never updated or removed.
type Repository interface {
	Contains(ctx context.Context, guid string) (bool, error)
	Insert(ctx context.Context, guid string) error
	Close() error
}
