package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"audio-sessions/internal/app/repository"
)

// Ensure PostgresDB implements SessionStore
var _ repository.SessionStore = (*PostgresDB)(nil)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id BIGSERIAL PRIMARY KEY,
	title TEXT NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL,
	duration_sec DOUBLE PRECISION DEFAULT 0,
	path TEXT NOT NULL,
	samplerate INTEGER DEFAULT 44100,
	channels INTEGER DEFAULT 1,
	notes TEXT DEFAULT '',
	transcript_text TEXT,
	transcript_tokens INTEGER,
	transcription_status TEXT,
	transformed_text TEXT,
	transform_prompt TEXT,
	transform_stale BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_sessions_recorded_at ON sessions (recorded_at DESC, id DESC);`

const syncSequenceSQL = `SELECT setval(pg_get_serial_sequence('sessions', 'id'), GREATEST((SELECT MAX(id) FROM sessions), 1))`

// uniqueViolation is the SQLSTATE for duplicate keys
const uniqueViolation = "23505"

// PostgresDB is the PostgreSQL session store
type PostgresDB struct {
	*repository.CommonDB
}

// NewPostgresDB opens a connection pool. The schema is created by Migrate.
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}
	return newWithDB(db), nil
}

func newWithDB(db *sql.DB) *PostgresDB {
	common := repository.NewCommonDB(db, "postgres", isDuplicate)
	common.AfterExplicitInsert(func(ctx context.Context, db *sql.DB) error {
		_, err := db.ExecContext(ctx, syncSequenceSQL)
		return err
	})
	return &PostgresDB{CommonDB: common}
}

// Open connects, pings and migrates.
func Open(ctx context.Context, connectionString string) (*PostgresDB, error) {
	pdb, err := NewPostgresDB(connectionString)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pdb.DB().PingContext(ctx); err != nil {
		pdb.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := pdb.Migrate(ctx); err != nil {
		pdb.Close()
		return nil, err
	}
	if _, err := pdb.ResetPending(ctx); err != nil {
		pdb.Close()
		return nil, err
	}
	return pdb, nil
}

// Migrate creates the sessions table if missing
func (pdb *PostgresDB) Migrate(ctx context.Context) error {
	if _, err := pdb.DB().ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

func isDuplicate(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
