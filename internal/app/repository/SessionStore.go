package repository

import (
	"context"

	"audio-sessions/internal/app/model"
)

// SessionStore persists session records. Audio files are referenced by path and never touched.
type SessionStore interface {
	Close() error

	// Create inserts a session. A zero ID is assigned by the store, a caller supplied
	// ID that already exists fails with ErrDuplicateKey.
	Create(ctx context.Context, s *model.Session) (*model.Session, error)

	Get(ctx context.Context, id int64) (*model.Session, error)

	// Update applies a partial update. Last write wins.
	Update(ctx context.Context, id int64, patch model.SessionPatch) (*model.Session, error)

	Delete(ctx context.Context, id int64) error

	// Find matches query case-insensitively against title and notes. An empty query
	// returns every session. Results are ordered newest recording first.
	Find(ctx context.Context, query string) ([]model.Session, error)
}
