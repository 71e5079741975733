package services

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"audio-sessions/internal/api/v1/dto"
	"audio-sessions/internal/app/audio"
	"audio-sessions/internal/app/config"
	"audio-sessions/internal/app/model"
	"audio-sessions/internal/app/pipeline"
	envconfig "audio-sessions/internal/config"
)

// sessionService implements SessionService on top of the pipeline orchestrator
type sessionService struct {
	orch     *pipeline.Orchestrator
	settings *config.Settings
	keys     *envconfig.APIKeys
	logger   *zap.Logger

	// failures holds the last background transcription error per session until a retry
	mu       sync.Mutex
	failures map[int64]string
}

// NewSessionService creates a new session service
func NewSessionService(orch *pipeline.Orchestrator, settings *config.Settings, keys *envconfig.APIKeys, logger *zap.Logger) SessionService {
	return &sessionService{
		orch:     orch,
		settings: settings,
		keys:     keys,
		logger:   logger,
		failures: make(map[int64]string),
	}
}

func (s *sessionService) response(sess model.Session) *dto.SessionResponse {
	r := dto.NewSessionResponse(sess, s.orch.InProgress(sess.ID))
	r.TranscriptionError = s.failure(sess.ID)
	return &r
}

func (s *sessionService) failure(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures[id]
}

func (s *sessionService) setFailure(id int64, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg == "" {
		delete(s.failures, id)
		return
	}
	s.failures[id] = msg
}

func (s *sessionService) ListSessions(ctx context.Context, query dto.ListSessionsQuery) (*dto.SessionListResponse, error) {
	sessions, err := s.orch.Store().Find(ctx, query.Query)
	if err != nil {
		return nil, err
	}

	out := &dto.SessionListResponse{Sessions: make([]dto.SessionResponse, 0, len(sessions)), Total: len(sessions)}
	for _, sess := range sessions {
		out.Sessions = append(out.Sessions, *s.response(sess))
	}
	return out, nil
}

func (s *sessionService) GetSession(ctx context.Context, id int64) (*dto.SessionResponse, error) {
	sess, err := s.orch.Store().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.response(*sess), nil
}

// CreateSession probes the file and saves it as a new session.
// Auto-transcription is scheduled when enabled and a key is configured.
func (s *sessionService) CreateSession(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	artifact, err := audio.Probe(req.Path)
	if err != nil {
		return nil, err
	}

	meta := model.Metadata{Title: req.Title, Notes: req.Notes}
	if req.RecordedAt != nil {
		meta.RecordedAt = *req.RecordedAt
	}

	sess, err := s.orch.SaveRecording(ctx, *artifact, meta)
	if err != nil {
		return nil, err
	}

	if s.settings.AutoTranscription {
		if key := s.keys.KeyFor(envconfig.ProviderOpenAI); key != "" {
			if err := s.background(ctx, sess.ID, key); err != nil {
				s.logger.Warn("auto transcription not started", zap.Int64("session_id", sess.ID), zap.Error(err))
			}
		}
	}
	return s.response(*sess), nil
}

func (s *sessionService) UpdateSession(ctx context.Context, id int64, req *dto.UpdateSessionRequest) (*dto.SessionResponse, error) {
	sess, err := s.orch.Store().Update(ctx, id, req.Patch())
	if err != nil {
		return nil, err
	}
	return s.response(*sess), nil
}

// DeleteSession removes the record. The audio file stays on disk.
func (s *sessionService) DeleteSession(ctx context.Context, id int64) error {
	if err := s.orch.Store().Delete(ctx, id); err != nil {
		return err
	}
	s.setFailure(id, "")
	return nil
}

func (s *sessionService) keyFor(provider, override string) string {
	if k := strings.TrimSpace(override); k != "" {
		return k
	}
	return s.keys.KeyFor(provider)
}

func (s *sessionService) Transcribe(ctx context.Context, id int64, apiKey string) (*dto.TranscriptionResponse, error) {
	res, err := s.orch.Transcribe(ctx, id, s.keyFor(envconfig.ProviderOpenAI, apiKey))
	if err != nil {
		return nil, err
	}
	s.setFailure(id, "")
	return &dto.TranscriptionResponse{
		SessionID: res.SessionID,
		Status:    string(model.StatusCompleted),
		Text:      res.Text,
		Language:  res.Language,
		Duration:  res.Duration,
		Tokens:    res.Tokens,
		Cached:    res.Cached,
	}, nil
}

// StartTranscription validates the request and takes the session before answering.
// Only the service call runs after the response; its failure is reported on the session.
func (s *sessionService) StartTranscription(ctx context.Context, id int64, apiKey string) (*dto.TranscriptionResponse, error) {
	if err := s.background(ctx, id, s.keyFor(envconfig.ProviderOpenAI, apiKey)); err != nil {
		return nil, err
	}
	return &dto.TranscriptionResponse{SessionID: id, Status: string(model.StatusPending)}, nil
}

// background starts a transcription and records its outcome off the request path
func (s *sessionService) background(ctx context.Context, id int64, apiKey string) error {
	results, err := s.orch.StartTranscribe(ctx, id, apiKey)
	if err != nil {
		return err
	}
	s.setFailure(id, "")

	go func() {
		r := <-results
		if r.Err != nil {
			s.setFailure(id, r.Err.Error())
			s.logger.Warn("background transcription failed", zap.Int64("session_id", id), zap.Error(r.Err))
			return
		}
		s.logger.Info("background transcription completed", zap.Int64("session_id", id), zap.Int("tokens", r.Value.Tokens))
	}()
	return nil
}

func (s *sessionService) Transform(ctx context.Context, id int64, req *dto.TransformRequest, apiKey string) (*dto.TransformationResponse, error) {
	prompt, err := s.settings.ResolvePrompt(req.Prompt)
	if err != nil {
		return nil, err
	}

	res, err := s.orch.Transform(ctx, id, prompt, s.keyFor(s.settings.Transform.Provider, apiKey))
	if err != nil {
		return nil, err
	}
	return &dto.TransformationResponse{
		SessionID: res.SessionID,
		Status:    string(model.StatusCompleted),
		Prompt:    res.Prompt,
		Text:      res.Text,
		Tokens:    res.Tokens,
	}, nil
}
