package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
)

// CommonDB provides shared database functionality
type CommonDB struct {
	db           *sql.DB
	driverName   string
	placeholders PlaceholderFunc
	fold         FoldFunc
	isDuplicate  DuplicateFunc
	afterInsert  func(ctx context.Context, db *sql.DB) error
}

// PlaceholderFunc generates parameter placeholders for different SQL dialects
type PlaceholderFunc func(n int) string

// FoldFunc wraps a column expression so it compares case-insensitively
type FoldFunc func(expr string) string

// DuplicateFunc reports whether a driver error is a primary key violation
type DuplicateFunc func(err error) bool

// sqliteTimeLayout is fixed width so that text ordering matches time ordering.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z"

// sessionColumns is the select list shared by every read
const sessionColumns = `id, title, recorded_at, duration_sec, samplerate, channels, path, notes,
	transcript_text, transcript_tokens, transcription_status,
	transformed_text, transform_prompt, transform_stale`

// NewCommonDB creates a new CommonDB instance
func NewCommonDB(db *sql.DB, driverName string, isDuplicate DuplicateFunc) *CommonDB {
	var placeholders PlaceholderFunc
	fold := func(expr string) string { return "LOWER(" + expr + ")" }

	switch driverName {
	case "sqlite3":
		placeholders = func(n int) string { return "?" }
		// sqlite LOWER only folds ASCII, the store registers a unicode aware fold()
		fold = func(expr string) string { return "fold(" + expr + ")" }
	case "postgres":
		placeholders = func(n int) string { return fmt.Sprintf("$%d", n) }
	default:
		placeholders = func(n int) string { return "?" }
	}

	if isDuplicate == nil {
		isDuplicate = func(error) bool { return false }
	}

	return &CommonDB{
		db:           db,
		driverName:   driverName,
		placeholders: placeholders,
		fold:         fold,
		isDuplicate:  isDuplicate,
	}
}

// AfterExplicitInsert registers a hook run after a row is inserted with a caller supplied id.
func (c *CommonDB) AfterExplicitInsert(fn func(ctx context.Context, db *sql.DB) error) {
	c.afterInsert = fn
}

func (c *CommonDB) encodeTime(t time.Time) interface{} {
	if c.driverName == "postgres" {
		return t.UTC()
	}
	return t.UTC().Format(sqliteTimeLayout)
}

// decodeTime accepts native times and the text layouts older databases used.
func decodeTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case []byte:
		return parseTimeText(string(t))
	case string:
		return parseTimeText(t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unsupported time value %T", v)
	}
}

func parseTimeText(s string) (time.Time, error) {
	layouts := []string{
		sqliteTimeLayout,
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

func (c *CommonDB) params(from, n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = c.placeholders(from + i)
	}
	return out
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSession(row rowScanner) (*model.Session, error) {
	var (
		s          model.Session
		recordedAt interface{}
		transcript sql.NullString
		tokens     sql.NullInt64
		status     sql.NullString
		transform  sql.NullString
		prompt     sql.NullString
		stale      sql.NullBool
	)

	err := row.Scan(
		&s.ID, &s.Title, &recordedAt, &s.DurationSec, &s.SampleRate, &s.Channels, &s.Path, &s.Notes,
		&transcript, &tokens, &status,
		&transform, &prompt, &stale,
	)
	if err != nil {
		return nil, err
	}

	if s.RecordedAt, err = decodeTime(recordedAt); err != nil {
		return nil, err
	}
	if transcript.Valid {
		s.Transcript = &transcript.String
	}
	if transform.Valid {
		s.Transformed = &transform.String
	}
	s.TranscriptTokens = int(tokens.Int64)
	s.TranscriptionStatus = model.TranscriptionStatus(status.String)
	s.TransformPrompt = prompt.String
	s.TransformStale = stale.Bool
	s.RefreshFileSize()

	return &s, nil
}

func persistence(err error, format string, args ...interface{}) error {
	return apperrors.ErrPersistence.With(fmt.Errorf(format+": %w", append(args, err)...))
}

// Create inserts a session and returns it with its assigned id
func (c *CommonDB) Create(ctx context.Context, s *model.Session) (*model.Session, error) {
	if s == nil {
		return nil, apperrors.RequiredField("session")
	}

	columns := []string{"title", "recorded_at", "duration_sec", "samplerate", "channels", "path", "notes",
		"transcript_text", "transcript_tokens", "transcription_status",
		"transformed_text", "transform_prompt", "transform_stale"}
	title, notes := model.NormalizeNewlines(s.Title), model.NormalizeNewlines(s.Notes)
	args := []interface{}{title, c.encodeTime(s.RecordedAt), s.DurationSec, s.SampleRate, s.Channels, s.Path, notes,
		nullString(s.Transcript), s.TranscriptTokens, string(s.TranscriptionStatus),
		nullString(s.Transformed), s.TransformPrompt, s.TransformStale}

	explicit := s.ID != 0
	if explicit {
		columns = append([]string{"id"}, columns...)
		args = append([]interface{}{s.ID}, args...)
	}

	query := fmt.Sprintf(
		"INSERT INTO sessions (%s) VALUES (%s) RETURNING id",
		strings.Join(columns, ", "),
		strings.Join(c.params(1, len(columns)), ", "),
	)

	var id int64
	if err := c.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		if explicit && c.isDuplicate(err) {
			return nil, apperrors.ErrDuplicateKey.Withf("id %d", s.ID)
		}
		return nil, persistence(err, "insert session")
	}

	if explicit && c.afterInsert != nil {
		if err := c.afterInsert(ctx, c.db); err != nil {
			return nil, persistence(err, "sync id sequence")
		}
	}

	created := *s
	created.ID = id
	created.Title, created.Notes = title, notes
	created.RefreshFileSize()
	return &created, nil
}

// Get loads one session
func (c *CommonDB) Get(ctx context.Context, id int64) (*model.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE id = %s", sessionColumns, c.placeholders(1))

	s, err := scanSession(c.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound(id)
	}
	if err != nil {
		return nil, persistence(err, "get session %d", id)
	}
	return s, nil
}

// Update applies the set fields of patch
func (c *CommonDB) Update(ctx context.Context, id int64, patch model.SessionPatch) (*model.Session, error) {
	if patch.Path != nil {
		current, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if *patch.Path != current.Path {
			return nil, apperrors.ErrPathReassigned.Withf("session %d", id)
		}
	}

	var (
		sets []string
		args []interface{}
	)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = %s", column, c.placeholders(len(args))))
	}

	if patch.Title != nil {
		add("title", model.NormalizeNewlines(*patch.Title))
	}
	if patch.Notes != nil {
		add("notes", model.NormalizeNewlines(*patch.Notes))
	}
	if patch.Transcript != nil {
		add("transcript_text", *patch.Transcript)
	}
	if patch.TranscriptTokens != nil {
		add("transcript_tokens", *patch.TranscriptTokens)
	}
	if patch.TranscriptionStatus != nil {
		add("transcription_status", string(*patch.TranscriptionStatus))
	}
	if patch.Transformed != nil {
		add("transformed_text", *patch.Transformed)
	}
	if patch.TransformPrompt != nil {
		add("transform_prompt", *patch.TransformPrompt)
	}
	if patch.TransformStale != nil {
		add("transform_stale", *patch.TransformStale)
	}

	if len(sets) == 0 {
		return c.Get(ctx, id)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE sessions SET %s WHERE id = %s", strings.Join(sets, ", "), c.placeholders(len(args)))

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, persistence(err, "update session %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, persistence(err, "update session %d", id)
	}
	if n == 0 {
		return nil, apperrors.NotFound(id)
	}

	return c.Get(ctx, id)
}

// Delete removes the record. The audio file stays on disk.
func (c *CommonDB) Delete(ctx context.Context, id int64) error {
	query := fmt.Sprintf("DELETE FROM sessions WHERE id = %s", c.placeholders(1))

	res, err := c.db.ExecContext(ctx, query, id)
	if err != nil {
		return persistence(err, "delete session %d", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistence(err, "delete session %d", id)
	}
	if n == 0 {
		return apperrors.NotFound(id)
	}
	return nil
}

// Find lists sessions whose title or notes contain query
func (c *CommonDB) Find(ctx context.Context, query string) ([]model.Session, error) {
	var (
		where string
		args  []interface{}
	)
	if q := strings.TrimSpace(query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		where = fmt.Sprintf(
			`WHERE %s LIKE %s ESCAPE '\' OR %s LIKE %s ESCAPE '\'`,
			c.fold("title"), c.placeholders(1), c.fold("notes"), c.placeholders(2),
		)
		args = append(args, pattern, pattern)
	}

	sqlStr := fmt.Sprintf(
		"SELECT %s FROM sessions %s ORDER BY recorded_at DESC, id DESC",
		sessionColumns, where,
	)

	rows, err := c.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, persistence(err, "query sessions")
	}
	defer rows.Close()

	sessions := make([]model.Session, 0)
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, persistence(err, "scan session")
		}
		sessions = append(sessions, *s)
	}

	if err = rows.Err(); err != nil {
		return nil, persistence(err, "rows error")
	}

	return sessions, nil
}

// ResetPending settles sessions left pending by a process that stopped mid-transcription.
// A session with a transcript goes back to completed, one without to no status.
func (c *CommonDB) ResetPending(ctx context.Context) (int64, error) {
	query := fmt.Sprintf(
		`UPDATE sessions SET transcription_status = CASE
			WHEN transcript_text IS NOT NULL AND transcript_text <> '' THEN %s ELSE %s END
		WHERE transcription_status = %s`,
		c.placeholders(1), c.placeholders(2), c.placeholders(3),
	)
	res, err := c.db.ExecContext(ctx, query,
		string(model.StatusCompleted), string(model.StatusNone), string(model.StatusPending))
	if err != nil {
		return 0, persistence(err, "reset pending sessions")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, persistence(err, "reset pending sessions")
	}
	return n, nil
}

// Close closes the database connection
func (c *CommonDB) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying database connection
func (c *CommonDB) DB() *sql.DB {
	return c.db
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
