package tests

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
	"audio-sessions/internal/app/repository"
	"audio-sessions/internal/app/repository/pg"
	"audio-sessions/internal/app/repository/sqlite"
)

// storeFactory opens an empty store for one subtest
type storeFactory struct {
	name string
	open func(t *testing.T) repository.SessionStore
}

func factories() []storeFactory {
	out := []storeFactory{{
		name: "SQLite",
		open: func(t *testing.T) repository.SessionStore {
			store, err := sqlite.NewSQLiteDB(filepath.Join(t.TempDir(), "sessions.db"))
			require.NoError(t, err)
			return store
		},
	}}

	if pgURL := os.Getenv("POSTGRES_TEST_URL"); pgURL != "" {
		out = append(out, storeFactory{
			name: "PostgreSQL",
			open: func(t *testing.T) repository.SessionStore {
				store, err := pg.Open(context.Background(), pgURL)
				require.NoError(t, err)
				_, err = store.DB().Exec("TRUNCATE sessions RESTART IDENTITY")
				require.NoError(t, err)
				return store
			},
		})
	}
	return out
}

// TestCrossDatabaseCompatibility runs the same store contract against every available backend
func TestCrossDatabaseCompatibility(t *testing.T) {
	for _, f := range factories() {
		t.Run(f.name, func(t *testing.T) {
			t.Run("create_get_roundtrip", func(t *testing.T) {
				store := f.open(t)
				defer store.Close()
				ctx := context.Background()

				at := time.Date(2025, 4, 5, 6, 7, 8, 0, time.UTC)
				created, err := store.Create(ctx, &model.Session{
					Title: "roundtrip", RecordedAt: at, DurationSec: 3.25,
					SampleRate: 48000, Channels: 2, Path: "/r.wav", Notes: "a,b\nc",
				})
				require.NoError(t, err)

				got, err := store.Get(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, "roundtrip", got.Title)
				assert.True(t, got.RecordedAt.Equal(at))
				assert.Equal(t, 3.25, got.DurationSec)
				assert.Equal(t, "a,b\nc", got.Notes)
				assert.Nil(t, got.Transcript)
			})

			t.Run("ordering_and_delete", func(t *testing.T) {
				store := f.open(t)
				defer store.Close()
				ctx := context.Background()

				base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
				var ids []int64
				for i := 0; i < 3; i++ {
					s, err := store.Create(ctx, &model.Session{
						Title: "s", RecordedAt: base.Add(time.Duration(i) * time.Hour),
						SampleRate: 8000, Channels: 1, Path: "/s.wav",
					})
					require.NoError(t, err)
					ids = append(ids, s.ID)
				}

				found, err := store.Find(ctx, "")
				require.NoError(t, err)
				require.Len(t, found, 3)
				assert.Equal(t, []int64{ids[2], ids[1], ids[0]}, []int64{found[0].ID, found[1].ID, found[2].ID})

				require.NoError(t, store.Delete(ctx, ids[0]))
				assert.True(t, apperrors.Is(store.Delete(ctx, ids[0]), apperrors.ErrSessionNotFound))
			})
		})
	}
}
