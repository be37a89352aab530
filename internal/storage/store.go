package storage

import (
	"context"

	"github.com/pkg/errors"
)

// StorageKey is the fixed identifier learner state is stored under.
const StorageKey = "study-app-state"

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store persists opaque blobs by key. Implementations must be safe for
// concurrent use; callers serialize writes to the same key.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Key returns the per-learner storage key.
func Key(learnerID string) string {
	return StorageKey + ":" + learnerID
}
