package pipeline

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"audio-sessions/internal/app/api"
	"audio-sessions/internal/app/cache"
	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/metrics"
	"audio-sessions/internal/app/model"
	"audio-sessions/internal/app/repository"
)

// TranscriptionResult is what a successful transcribe stage persisted
type TranscriptionResult struct {
	SessionID int64   `json:"session_id"`
	Text      string  `json:"text"`
	Language  string  `json:"language"`
	Duration  float64 `json:"duration"`
	Tokens    int     `json:"tokens_used"`
	Cached    bool    `json:"cached"`
}

// TransformationResult is what a successful transform stage persisted
type TransformationResult struct {
	SessionID int64  `json:"session_id"`
	Text      string `json:"text"`
	Prompt    string `json:"prompt"`
	Tokens    int    `json:"tokens_used"`
}

// Orchestrator drives sessions through save, transcription and transformation.
// Stage results reach later stages only through the store.
type Orchestrator struct {
	store       repository.SessionStore
	transcriber api.Transcriber
	transformer api.Transformer
	cache       cache.TranscriptCache
	metrics     *metrics.PipelineMetrics
	logger      *zap.Logger
	tokens      *Tokens
	validate    *validator.Validate
	now         func() time.Time
}

// NewOrchestrator wires the pipeline. A nil cache disables caching.
func NewOrchestrator(
	store repository.SessionStore,
	transcriber api.Transcriber,
	transformer api.Transformer,
	transcriptCache cache.TranscriptCache,
	pipelineMetrics *metrics.PipelineMetrics,
	logger *zap.Logger,
) *Orchestrator {
	if transcriptCache == nil {
		transcriptCache = cache.Nop{}
	}
	if pipelineMetrics == nil {
		pipelineMetrics = metrics.NewPipelineMetrics(nil)
	}
	return &Orchestrator{
		store:       store,
		transcriber: transcriber,
		transformer: transformer,
		cache:       transcriptCache,
		metrics:     pipelineMetrics,
		logger:      logger,
		tokens:      NewTokens(),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}
}

// Store returns the session store
func (o *Orchestrator) Store() repository.SessionStore {
	return o.store
}

// InProgress reports whether an AI stage is running for the session
func (o *Orchestrator) InProgress(id int64) bool {
	return o.tokens.Held(Key{Resource: ResourceSession, ID: id})
}

// SaveRecording validates the artifact and creates a session for it.
func (o *Orchestrator) SaveRecording(ctx context.Context, artifact model.AudioArtifact, meta model.Metadata) (*model.Session, error) {
	if err := o.validate.Struct(artifact); err != nil {
		o.metrics.RecordFailure(metrics.StageSave, string(apperrors.KindValidation))
		return nil, apperrors.ErrInvalidArtifact.With(err)
	}

	recordedAt := meta.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = o.now()
	}

	end := o.metrics.Begin(metrics.StageSave)
	s, err := o.store.Create(ctx, &model.Session{
		Title:       meta.Title,
		Notes:       meta.Notes,
		RecordedAt:  recordedAt,
		DurationSec: artifact.DurationSec,
		SampleRate:  artifact.SampleRate,
		Channels:    artifact.Channels,
		Path:        artifact.Path,
	})
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindUnknown {
			err = apperrors.ErrPersistence.With(err)
		}
		end(string(apperrors.KindOf(err)))
		return nil, err
	}
	end("")

	o.logger.Info("session saved",
		zap.Int64("session_id", s.ID),
		zap.String("stage", metrics.StageSave),
		zap.String("path", s.Path))
	return s, nil
}

// Transcribe sends the session audio to the transcription service and persists the text.
// Preconditions are checked in order: session exists, credential present, audio file present.
// A failed precondition never reaches the service.
func (o *Orchestrator) Transcribe(ctx context.Context, id int64, apiKey string) (*TranscriptionResult, error) {
	s, release, err := o.beginTranscribe(ctx, id, apiKey)
	if err != nil {
		return nil, err
	}
	defer release()
	return o.runTranscribe(ctx, s, apiKey)
}

// StartTranscribe checks the preconditions and takes the session token before returning,
// so the returned channel only reports the outcome of the service call and write-back.
func (o *Orchestrator) StartTranscribe(ctx context.Context, id int64, apiKey string) (<-chan Result[TranscriptionResult], error) {
	s, release, err := o.beginTranscribe(ctx, id, apiKey)
	if err != nil {
		return nil, err
	}
	return runAsync(func() (*TranscriptionResult, error) {
		defer release()
		return o.runTranscribe(ctx, s, apiKey)
	}), nil
}

// beginTranscribe checks the transcribe preconditions in order and acquires the session token.
func (o *Orchestrator) beginTranscribe(ctx context.Context, id int64, apiKey string) (*model.Session, func(), error) {
	s, err := o.store.Get(ctx, id)
	if err != nil {
		o.metrics.RecordFailure(metrics.StageTranscribe, string(apperrors.KindOf(err)))
		return nil, nil, err
	}
	if strings.TrimSpace(apiKey) == "" {
		o.metrics.RecordFailure(metrics.StageTranscribe, string(apperrors.KindValidation))
		return nil, nil, apperrors.ErrMissingCredential
	}
	if info, statErr := os.Stat(s.Path); statErr != nil || info.IsDir() {
		o.metrics.RecordFailure(metrics.StageTranscribe, string(apperrors.KindValidation))
		return nil, nil, apperrors.ErrArtifactMissing.Withf("%s", s.Path)
	}

	release, ok := o.tokens.Acquire(Key{Resource: ResourceSession, ID: id})
	if !ok {
		o.metrics.RecordFailure(metrics.StageTranscribe, string(apperrors.KindConflict))
		return nil, nil, apperrors.ErrAlreadyInProgress.Withf("session %d", id)
	}
	return s, release, nil
}

// runTranscribe performs the service call and write-back. The caller holds the session token.
func (o *Orchestrator) runTranscribe(ctx context.Context, s *model.Session, apiKey string) (*TranscriptionResult, error) {
	id := s.ID

	// the service call and the write-back are not abandoned when the caller stops waiting
	ctx = context.WithoutCancel(ctx)
	logger := o.logger.With(zap.Int64("session_id", id), zap.String("stage", metrics.StageTranscribe))
	start := o.now()
	end := o.metrics.Begin(metrics.StageTranscribe)

	// read under the token: a transform may have finished since the precondition checks.
	// A failed call puts back the status seen here.
	before, err := o.store.Get(ctx, id)
	if err != nil {
		end(string(apperrors.KindOf(err)))
		return nil, err
	}
	if _, err := o.store.Update(ctx, id, model.SessionPatch{TranscriptionStatus: model.Ptr(model.StatusPending)}); err != nil {
		end(string(apperrors.KindOf(err)))
		return nil, err
	}

	transcription, cached, err := o.transcribe(ctx, s.Path, apiKey, logger)
	if err != nil {
		restore := model.SessionPatch{TranscriptionStatus: model.Ptr(before.TranscriptionStatus)}
		if _, uerr := o.store.Update(ctx, id, restore); uerr != nil {
			logger.Warn("failed to restore transcription status", zap.Error(uerr))
		}
		end(string(apperrors.KindExternalService))
		logger.Error("transcription failed", zap.Duration("duration", o.now().Sub(start)), zap.Error(err))
		return nil, apperrors.ErrTranscriptionFailed.With(err)
	}

	patch := model.SessionPatch{
		Transcript:          model.Ptr(transcription.Text),
		TranscriptTokens:    model.Ptr(transcription.Tokens),
		TranscriptionStatus: model.Ptr(model.StatusCompleted),
	}
	if before.Transformed != nil {
		patch.TransformStale = model.Ptr(true)
	}
	if _, err := o.store.Update(ctx, id, patch); err != nil {
		end(string(apperrors.KindOf(err)))
		return nil, err
	}
	end("")
	o.metrics.RecordTokens(metrics.StageTranscribe, transcription.Tokens)

	logger.Info("transcription completed",
		zap.Duration("duration", o.now().Sub(start)),
		zap.Bool("cached", cached),
		zap.Int("tokens", transcription.Tokens))

	return &TranscriptionResult{
		SessionID: id,
		Text:      transcription.Text,
		Language:  transcription.Language,
		Duration:  transcription.Duration,
		Tokens:    transcription.Tokens,
		Cached:    cached,
	}, nil
}

// transcribe consults the cache before calling the service exactly once.
func (o *Orchestrator) transcribe(ctx context.Context, path, apiKey string, logger *zap.Logger) (api.Transcription, bool, error) {
	key, err := cache.KeyForFile(path)
	if err != nil {
		logger.Warn("cannot hash audio for cache", zap.Error(err))
		key = ""
	}

	if key != "" {
		hit, ok, err := o.cache.Get(ctx, key)
		if err != nil {
			logger.Warn("transcript cache read failed", zap.Error(err))
		} else if ok {
			o.metrics.RecordCacheHit()
			return hit, true, nil
		}
	}

	t, err := o.transcriber.Transcribe(ctx, path, apiKey)
	if err != nil {
		return api.Transcription{}, false, err
	}

	if key != "" {
		if err := o.cache.Put(ctx, key, t); err != nil {
			logger.Warn("transcript cache write failed", zap.Error(err))
		}
	}
	return t, false, nil
}

// Transform applies prompt to the stored transcript and persists the result.
// The transcript is checked before the credential so the outcome for a session without
// one does not depend on the prompt or key.
func (o *Orchestrator) Transform(ctx context.Context, id int64, prompt model.Prompt, apiKey string) (*TransformationResult, error) {
	s, err := o.store.Get(ctx, id)
	if err != nil {
		o.metrics.RecordFailure(metrics.StageTransform, string(apperrors.KindOf(err)))
		return nil, err
	}
	if !s.HasTranscript() {
		o.metrics.RecordFailure(metrics.StageTransform, string(apperrors.KindValidation))
		return nil, apperrors.ErrNoTranscription.Withf("session %d", id)
	}
	if strings.TrimSpace(apiKey) == "" {
		o.metrics.RecordFailure(metrics.StageTransform, string(apperrors.KindValidation))
		return nil, apperrors.ErrMissingCredential
	}
	if err := prompt.Validate(); err != nil {
		o.metrics.RecordFailure(metrics.StageTransform, string(apperrors.KindValidation))
		return nil, apperrors.ErrInvalidPrompt.With(err)
	}

	release, ok := o.tokens.Acquire(Key{Resource: ResourceSession, ID: id})
	if !ok {
		o.metrics.RecordFailure(metrics.StageTransform, string(apperrors.KindConflict))
		return nil, apperrors.ErrAlreadyInProgress.Withf("session %d", id)
	}
	defer release()

	ctx = context.WithoutCancel(ctx)
	logger := o.logger.With(
		zap.Int64("session_id", id),
		zap.String("stage", metrics.StageTransform),
		zap.String("prompt", prompt.Key()))
	start := o.now()
	end := o.metrics.Begin(metrics.StageTransform)

	// use the transcript as of token acquisition
	current, err := o.store.Get(ctx, id)
	if err != nil {
		end(string(apperrors.KindOf(err)))
		return nil, err
	}
	if !current.HasTranscript() {
		end(string(apperrors.KindValidation))
		return nil, apperrors.ErrNoTranscription.Withf("session %d", id)
	}

	result, err := o.transformer.Transform(ctx, current.TranscriptText(), prompt, apiKey)
	if err != nil {
		end(string(apperrors.KindExternalService))
		logger.Error("transformation failed", zap.Duration("duration", o.now().Sub(start)), zap.Error(err))
		return nil, apperrors.ErrTransformationFailed.With(err)
	}

	if _, err := o.store.Update(ctx, id, model.SessionPatch{
		Transformed:     model.Ptr(result.Text),
		TransformPrompt: model.Ptr(prompt.Key()),
		TransformStale:  model.Ptr(false),
	}); err != nil {
		end(string(apperrors.KindOf(err)))
		return nil, err
	}
	end("")
	o.metrics.RecordTokens(metrics.StageTransform, result.Tokens)

	logger.Info("transformation completed",
		zap.Duration("duration", o.now().Sub(start)),
		zap.Int("tokens", result.Tokens))

	return &TransformationResult{
		SessionID: id,
		Text:      result.Text,
		Prompt:    prompt.Key(),
		Tokens:    result.Tokens,
	}, nil
}
