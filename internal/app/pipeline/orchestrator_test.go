package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"audio-sessions/internal/app/api"
	"audio-sessions/internal/app/cache"
	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/model"
	"audio-sessions/internal/app/repository/sqlite"
)

type mockTranscriber struct {
	mock.Mock
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath, apiKey string) (api.Transcription, error) {
	args := m.Called(audioPath, apiKey)
	return args.Get(0).(api.Transcription), args.Error(1)
}

type mockTransformer struct {
	mock.Mock
}

func (m *mockTransformer) Transform(ctx context.Context, text string, prompt model.Prompt, apiKey string) (api.Transformation, error) {
	args := m.Called(text, prompt.Key(), apiKey)
	return args.Get(0).(api.Transformation), args.Error(1)
}

type memCache struct {
	mu    sync.Mutex
	items map[string]api.Transcription
}

func (c *memCache) Get(_ context.Context, key string) (api.Transcription, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.items[key]
	return t, ok, nil
}

func (c *memCache) Put(_ context.Context, key string, t api.Transcription) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = t
	return nil
}

type fixture struct {
	orch        *Orchestrator
	store       *sqlite.SQLiteDB
	transcriber *mockTranscriber
	transformer *mockTransformer
	dir         string
}

func newFixture(t *testing.T, c cache.TranscriptCache) *fixture {
	t.Helper()
	dir := t.TempDir()
	store, err := sqlite.NewSQLiteDB(filepath.Join(dir, "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	tr := &mockTranscriber{}
	tf := &mockTransformer{}
	return &fixture{
		orch:        NewOrchestrator(store, tr, tf, c, nil, zap.NewNop()),
		store:       store,
		transcriber: tr,
		transformer: tf,
		dir:         dir,
	}
}

// saveSession writes an audio file and saves a session for it
func (f *fixture) saveSession(t *testing.T, name string) *model.Session {
	t.Helper()
	path := filepath.Join(f.dir, name)
	require.NoError(t, os.WriteFile(path, []byte("RIFF"+name), 0644))

	s, err := f.orch.SaveRecording(context.Background(), model.AudioArtifact{
		Path:        path,
		DurationSec: 3,
		SampleRate:  44100,
		Channels:    1,
	}, model.Metadata{Title: name})
	require.NoError(t, err)
	return s
}

func TestSaveRecording(t *testing.T) {
	f := newFixture(t, nil)
	at := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)

	s, err := f.orch.SaveRecording(context.Background(), model.AudioArtifact{
		Path:        filepath.Join(f.dir, "a.wav"),
		DurationSec: 1.5,
		SampleRate:  16000,
		Channels:    2,
	}, model.Metadata{Title: "standup", Notes: "n", RecordedAt: at})
	require.NoError(t, err)
	assert.NotZero(t, s.ID)
	assert.Equal(t, "standup", s.Title)
	assert.True(t, s.RecordedAt.Equal(at))
	assert.Nil(t, s.Transcript)

	got, err := f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, 16000, got.SampleRate)
	assert.Equal(t, 2, got.Channels)
}

func TestSaveRecording_InvalidArtifact(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name     string
		artifact model.AudioArtifact
	}{
		{"empty path", model.AudioArtifact{SampleRate: 44100, Channels: 1}},
		{"zero sample rate", model.AudioArtifact{Path: "x.wav", Channels: 1}},
		{"zero channels", model.AudioArtifact{Path: "x.wav", SampleRate: 44100}},
		{"negative duration", model.AudioArtifact{Path: "x.wav", SampleRate: 44100, Channels: 1, DurationSec: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.SaveRecording(context.Background(), tt.artifact, model.Metadata{})
			assert.ErrorIs(t, err, apperrors.ErrInvalidArtifact)
		})
	}

	all, err := f.store.Find(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTranscribe_Preconditions(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")

	missing := f.saveSession(t, "gone.wav")
	require.NoError(t, os.Remove(missing.Path))

	tests := []struct {
		name   string
		id     int64
		apiKey string
		want   error
	}{
		{"unknown session", 9999, "key", apperrors.ErrSessionNotFound},
		{"unknown session without key", 9999, "", apperrors.ErrSessionNotFound},
		{"blank key", s.ID, "  ", apperrors.ErrMissingCredential},
		{"missing key with missing file", missing.ID, "", apperrors.ErrMissingCredential},
		{"missing file", missing.ID, "key", apperrors.ErrArtifactMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.Transcribe(context.Background(), tt.id, tt.apiKey)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	f.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)

	got, err := f.store.Get(context.Background(), missing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNone, got.TranscriptionStatus)
}

func TestStartTranscribe(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")
	missing := f.saveSession(t, "gone.wav")
	require.NoError(t, os.Remove(missing.Path))

	tests := []struct {
		name   string
		id     int64
		apiKey string
		want   error
	}{
		{"unknown session", 9999, "key", apperrors.ErrSessionNotFound},
		{"blank key", s.ID, "", apperrors.ErrMissingCredential},
		{"missing file", missing.ID, "key", apperrors.ErrArtifactMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := f.orch.StartTranscribe(context.Background(), tt.id, tt.apiKey)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, ch)
		})
	}
	f.transcriber.AssertNotCalled(t, "Transcribe", mock.Anything, mock.Anything)

	gate := make(chan struct{})
	f.transcriber.On("Transcribe", s.Path, "key").
		Run(func(mock.Arguments) { <-gate }).
		Return(api.Transcription{Text: "later"}, nil).Once()

	ch, err := f.orch.StartTranscribe(context.Background(), s.ID, "key")
	require.NoError(t, err)

	// the token is held as soon as StartTranscribe returns
	assert.True(t, f.orch.InProgress(s.ID))
	_, err = f.orch.StartTranscribe(context.Background(), s.ID, "key")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyInProgress)

	close(gate)
	r := <-ch
	require.NoError(t, r.Err)
	assert.Equal(t, "later", r.Value.Text)
	assert.False(t, f.orch.InProgress(s.ID))
}

func TestTranscribe_Success(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")

	f.transcriber.On("Transcribe", s.Path, "key").
		Return(api.Transcription{Text: "hello world", Language: "en", Tokens: 12}, nil).Once()

	res, err := f.orch.Transcribe(context.Background(), s.ID, "key")
	require.NoError(t, err)
	assert.Equal(t, "hello world", res.Text)
	assert.False(t, res.Cached)

	got, err := f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.TranscriptText())
	assert.Equal(t, 12, got.TranscriptTokens)
	assert.Equal(t, model.StatusCompleted, got.TranscriptionStatus)
	assert.False(t, got.TransformStale)
	f.transcriber.AssertExpectations(t)
}

func TestTranscribe_ServiceFailure(t *testing.T) {
	tests := []struct {
		name           string
		earlier        string
		wantStatus     model.TranscriptionStatus
		wantTranscript *string
	}{
		{name: "first attempt", wantStatus: model.StatusNone},
		{name: "re-transcription", earlier: "first", wantStatus: model.StatusCompleted, wantTranscript: model.Ptr("first")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			s := f.saveSession(t, "a.wav")

			if tt.earlier != "" {
				f.transcriber.On("Transcribe", s.Path, "key").
					Return(api.Transcription{Text: tt.earlier}, nil).Once()
				_, err := f.orch.Transcribe(context.Background(), s.ID, "key")
				require.NoError(t, err)
			}
			before, err := f.store.Get(context.Background(), s.ID)
			require.NoError(t, err)

			f.transcriber.On("Transcribe", s.Path, "key").
				Return(api.Transcription{}, errors.New("429 rate limited")).Once()

			_, err = f.orch.Transcribe(context.Background(), s.ID, "key")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrTranscriptionFailed)
			assert.Equal(t, apperrors.KindExternalService, apperrors.KindOf(err))
			assert.Contains(t, err.Error(), "429")

			got, err := f.store.Get(context.Background(), s.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTranscript, got.Transcript)
			assert.Equal(t, tt.wantStatus, got.TranscriptionStatus)
			assert.Equal(t, before, got)
			assert.False(t, f.orch.InProgress(s.ID))
			f.transcriber.AssertExpectations(t)
		})
	}
}

func TestTranscribe_ConcurrentCallsOneServiceCall(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")

	gate := make(chan struct{})
	entered := make(chan struct{})
	f.transcriber.On("Transcribe", s.Path, "key").
		Run(func(mock.Arguments) {
			close(entered)
			<-gate
		}).
		Return(api.Transcription{Text: "once"}, nil).Once()

	first := f.orch.TranscribeAsync(context.Background(), s.ID, "key")
	<-entered
	assert.True(t, f.orch.InProgress(s.ID))

	_, err := f.orch.Transcribe(context.Background(), s.ID, "key")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyInProgress)

	// transform of the same session shares the token
	_, err = f.store.Update(context.Background(), s.ID, model.SessionPatch{Transcript: model.Ptr("old")})
	require.NoError(t, err)
	_, err = f.orch.Transform(context.Background(), s.ID, model.Summarize(), "key")
	assert.ErrorIs(t, err, apperrors.ErrAlreadyInProgress)

	got, err := f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.TranscriptionStatus)

	close(gate)
	res := <-first
	require.NoError(t, res.Err)
	assert.Equal(t, "once", res.Value.Text)

	_, open := <-first
	assert.False(t, open)

	f.transcriber.AssertNumberOfCalls(t, "Transcribe", 1)
	f.transformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
}

func TestTranscribe_CancelledCallerStillPersists(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")

	ctx, cancel := context.WithCancel(context.Background())
	f.transcriber.On("Transcribe", s.Path, "key").
		Run(func(mock.Arguments) { cancel() }).
		Return(api.Transcription{Text: "kept"}, nil).Once()

	_, err := f.orch.Transcribe(ctx, s.ID, "key")
	require.NoError(t, err)

	got, err := f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "kept", got.TranscriptText())
}

func TestTranscribe_Cache(t *testing.T) {
	c := &memCache{items: map[string]api.Transcription{}}
	f := newFixture(t, c)
	a := f.saveSession(t, "a.wav")

	// same bytes, different file
	dup := filepath.Join(f.dir, "copy.wav")
	data, err := os.ReadFile(a.Path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dup, data, 0644))
	b, err := f.orch.SaveRecording(context.Background(), model.AudioArtifact{
		Path: dup, SampleRate: 44100, Channels: 1,
	}, model.Metadata{})
	require.NoError(t, err)

	f.transcriber.On("Transcribe", a.Path, "key").
		Return(api.Transcription{Text: "cached text", Tokens: 5}, nil).Once()

	first, err := f.orch.Transcribe(context.Background(), a.ID, "key")
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := f.orch.Transcribe(context.Background(), b.ID, "key")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, "cached text", second.Text)

	f.transcriber.AssertNumberOfCalls(t, "Transcribe", 1)
}

func TestTranscribe_MarksTransformStale(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")
	_, err := f.store.Update(context.Background(), s.ID, model.SessionPatch{
		Transcript:  model.Ptr("v1"),
		Transformed: model.Ptr("summary of v1"),
	})
	require.NoError(t, err)

	f.transcriber.On("Transcribe", s.Path, "key").Return(api.Transcription{Text: "v2"}, nil).Once()
	_, err = f.orch.Transcribe(context.Background(), s.ID, "key")
	require.NoError(t, err)

	got, err := f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", got.TranscriptText())
	assert.Equal(t, "summary of v1", got.TransformedText())
	assert.True(t, got.TransformStale)

	f.transformer.On("Transform", "v2", "summarize", "key").Return(api.Transformation{Text: "summary of v2"}, nil).Once()
	_, err = f.orch.Transform(context.Background(), s.ID, model.Summarize(), "key")
	require.NoError(t, err)

	got, err = f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.False(t, got.TransformStale)
}

func TestTransform_NoTranscription(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")

	prompts := append(model.BuiltinPrompts(), model.Custom("list action items"), model.Custom(""))
	for _, p := range prompts {
		for _, key := range []string{"", "key"} {
			_, err := f.orch.Transform(context.Background(), s.ID, p, key)
			assert.ErrorIs(t, err, apperrors.ErrNoTranscription, "prompt %s key %q", p.Key(), key)
		}
	}

	// empty transcript counts as none
	_, err := f.store.Update(context.Background(), s.ID, model.SessionPatch{Transcript: model.Ptr("")})
	require.NoError(t, err)
	_, err = f.orch.Transform(context.Background(), s.ID, model.Summarize(), "key")
	assert.ErrorIs(t, err, apperrors.ErrNoTranscription)

	f.transformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransform_Preconditions(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")
	_, err := f.store.Update(context.Background(), s.ID, model.SessionPatch{Transcript: model.Ptr("text")})
	require.NoError(t, err)

	tests := []struct {
		name   string
		id     int64
		prompt model.Prompt
		apiKey string
		want   error
	}{
		{"unknown session", 424242, model.Summarize(), "key", apperrors.ErrSessionNotFound},
		{"blank key", s.ID, model.Translate(), "", apperrors.ErrMissingCredential},
		{"empty custom prompt", s.ID, model.Custom("   "), "key", apperrors.ErrInvalidPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.orch.Transform(context.Background(), tt.id, tt.prompt, tt.apiKey)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	f.transformer.AssertNotCalled(t, "Transform", mock.Anything, mock.Anything, mock.Anything)
}

func TestTransform_SuccessAndFailure(t *testing.T) {
	f := newFixture(t, nil)
	s := f.saveSession(t, "a.wav")
	_, err := f.store.Update(context.Background(), s.ID, model.SessionPatch{Transcript: model.Ptr("raw notes")})
	require.NoError(t, err)

	f.transformer.On("Transform", "raw notes", "custom:actions", "key").
		Return(api.Transformation{Text: "- do it", Tokens: 30}, nil).Once()

	res, err := f.orch.Transform(context.Background(), s.ID, model.NamedCustom("actions", "list actions"), "key")
	require.NoError(t, err)
	assert.Equal(t, "- do it", res.Text)
	assert.Equal(t, "custom:actions", res.Prompt)

	got, err := f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "- do it", got.TransformedText())
	assert.Equal(t, "custom:actions", got.TransformPrompt)

	f.transformer.On("Transform", "raw notes", "translate", "key").
		Return(api.Transformation{}, errors.New("upstream 500")).Once()

	res2 := <-f.orch.TransformAsync(context.Background(), s.ID, model.Translate(), "key")
	assert.Nil(t, res2.Value)
	assert.ErrorIs(t, res2.Err, apperrors.ErrTransformationFailed)

	// failure leaves the previous result untouched
	got, err = f.store.Get(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, "- do it", got.TransformedText())
	assert.Equal(t, "raw notes", got.TranscriptText())
	f.transformer.AssertExpectations(t)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens()
	k := Key{Resource: ResourceSession, ID: 1}

	release, ok := tokens.Acquire(k)
	require.True(t, ok)
	assert.True(t, tokens.Held(k))

	_, ok = tokens.Acquire(k)
	assert.False(t, ok)

	_, ok = tokens.Acquire(Key{Resource: ResourceSession, ID: 2})
	assert.True(t, ok)

	release()
	release()
	assert.False(t, tokens.Held(k))

	_, ok = tokens.Acquire(k)
	assert.True(t, ok)
}
