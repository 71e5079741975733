package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"audio-sessions/internal/app/model"
	"audio-sessions/internal/app/repository"
)

// Ensure SQLiteDB implements SessionStore
var _ repository.SessionStore = (*SQLiteDB)(nil)

// driverName is go-sqlite3 with the fold() function used by Find
const driverName = "sqlite3_sessions"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("fold", fold, true)
		},
	})
}

// fold lowercases text with unicode rules. NULL stays NULL.
func fold(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return strings.ToLower(t)
	case []byte:
		if t == nil {
			return nil
		}
		return strings.ToLower(string(t))
	default:
		return v
	}
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	recorded_at TEXT NOT NULL,
	duration_sec REAL DEFAULT 0,
	path TEXT NOT NULL,
	samplerate INTEGER DEFAULT 44100,
	channels INTEGER DEFAULT 1,
	notes TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_recorded_at ON sessions (recorded_at);`

// migrations are the columns added after the first schema, in order
var migrations = []struct {
	column string
	ddl    string
}{
	{"transcript_text", "ALTER TABLE sessions ADD COLUMN transcript_text TEXT"},
	{"transcript_tokens", "ALTER TABLE sessions ADD COLUMN transcript_tokens INTEGER"},
	{"transcription_status", "ALTER TABLE sessions ADD COLUMN transcription_status TEXT"},
	{"transformed_text", "ALTER TABLE sessions ADD COLUMN transformed_text TEXT"},
	{"transform_prompt", "ALTER TABLE sessions ADD COLUMN transform_prompt TEXT"},
	{"transform_stale", "ALTER TABLE sessions ADD COLUMN transform_stale INTEGER DEFAULT 0"},
}

// SQLiteDB is the default session store
type SQLiteDB struct {
	*repository.CommonDB

	// writes are serialized in-process, sqlite allows a single writer
	mu sync.Mutex
}

// NewSQLiteDB opens (creating if needed) the database file and migrates the schema.
func NewSQLiteDB(dbFilePath string) (*SQLiteDB, error) {
	if dir := filepath.Dir(dbFilePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", dbFilePath))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	common := repository.NewCommonDB(db, "sqlite3", isDuplicate)
	if _, err := common.ResetPending(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteDB{CommonDB: common}, nil
}

// Migrate creates the sessions table and adds any missing columns.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(createTableSQL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	existing, err := columns(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if existing[m.column] {
			continue
		}
		if _, err := db.Exec(m.ddl); err != nil {
			return fmt.Errorf("add column %s: %w", m.column, err)
		}
	}
	return nil
}

func columns(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("PRAGMA table_info(sessions)")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			ctype     string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		out[name] = true
	}
	return out, rows.Err()
}

func isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}

func (sdb *SQLiteDB) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	sdb.mu.Lock()
	defer sdb.mu.Unlock()
	return sdb.CommonDB.Create(ctx, s)
}

func (sdb *SQLiteDB) Update(ctx context.Context, id int64, patch model.SessionPatch) (*model.Session, error) {
	sdb.mu.Lock()
	defer sdb.mu.Unlock()
	return sdb.CommonDB.Update(ctx, id, patch)
}

func (sdb *SQLiteDB) Delete(ctx context.Context, id int64) error {
	sdb.mu.Lock()
	defer sdb.mu.Unlock()
	return sdb.CommonDB.Delete(ctx, id)
}
