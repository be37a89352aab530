package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/study-coach/backend/internal/database"
)

// SQLStore keeps blobs in the learner_state table. It works on every driver
// the database package supports.
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(ctx context.Context, key string) ([]byte, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT payload FROM learner_state WHERE state_key = $1`),
		key,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load state %s", key)
	}
	return []byte(payload), nil
}

func (s *SQLStore) Save(ctx context.Context, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO learner_state (state_key, payload, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (state_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`),
		key, string(data), time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "save state %s", key)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx,
		s.db.Rebind(`DELETE FROM learner_state WHERE state_key = $1`),
		key,
	)
	if err != nil {
		return errors.Wrapf(err, "delete state %s", key)
	}
	return nil
}

// Close is a no-op: the pool belongs to the caller.
func (s *SQLStore) Close() error { return nil }
