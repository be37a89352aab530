package storage

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/study-coach/backend/internal/logger"
	"github.com/study-coach/backend/internal/models"
)

// Repository reads and writes learner state blobs. A missing or unreadable
// blob is not an error: Load returns nil and the caller starts fresh.
type Repository struct {
	store Store
	log   *logger.Logger
}

func NewRepository(store Store, log *logger.Logger) *Repository {
	return &Repository{store: store, log: log.With("component", "StateRepository")}
}

// Load returns the stored state, or nil when there is nothing usable.
func (r *Repository) Load(ctx context.Context, learnerID string) (*models.State, error) {
	key := Key(learnerID)
	data, err := r.store.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var st models.State
	if err := json.Unmarshal(data, &st); err != nil {
		r.log.Warn("discarding unreadable learner state", "key", key, "error", err)
		return nil, nil
	}
	return &st, nil
}

func (r *Repository) Save(ctx context.Context, learnerID string, st models.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "encode learner state")
	}
	return r.store.Save(ctx, Key(learnerID), data)
}

func (r *Repository) Reset(ctx context.Context, learnerID string) error {
	return r.store.Delete(ctx, Key(learnerID))
}
