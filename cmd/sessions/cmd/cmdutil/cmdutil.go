// Package cmdutil holds what the sessions subcommands share: settings loading,
// pipeline wiring, id parsing and output helpers.
package cmdutil

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"audio-sessions/internal/app"
	"audio-sessions/internal/app/config"
	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/logging"
	"audio-sessions/internal/app/pipeline"
	envconfig "audio-sessions/internal/config"
)

// Persistent flags, bound by the root command
var (
	ConfigPath string
	Verbose    bool
)

// LoadSettings reads the settings file named by --config, or the default location
func LoadSettings() (*config.Settings, error) {
	path := ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}
	return config.Load(path)
}

// NewLogger builds the CLI logger. --verbose switches to the development encoder at debug level.
func NewLogger(settings *config.Settings) (*zap.Logger, error) {
	if Verbose {
		return logging.NewLogger(true, "debug")
	}
	return logging.NewLogger(false, settings.LogLevel)
}

// Env is the wired application for one command invocation
type Env struct {
	Settings *config.Settings
	Expanded *config.Settings
	Keys     *envconfig.APIKeys
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Orch     *pipeline.Orchestrator

	cleanup func()
}

// Open loads settings and keys and wires the orchestrator
func Open(ctx context.Context) (*Env, error) {
	settings, err := LoadSettings()
	if err != nil {
		return nil, err
	}
	expanded := settings.Expanded()

	logger, err := NewLogger(expanded)
	if err != nil {
		return nil, err
	}

	keys, err := envconfig.GetAPIKeys()
	if err != nil {
		logger.Warn("ignoring invalid API keys", zap.Error(err))
		keys = &envconfig.APIKeys{}
	}

	registry := prometheus.NewRegistry()
	orch, cleanup, err := app.InitializeOrchestrator(ctx, expanded, logger, registry)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &Env{
		Settings: settings,
		Expanded: expanded,
		Keys:     keys,
		Logger:   logger,
		Registry: registry,
		Orch:     orch,
		cleanup:  cleanup,
	}, nil
}

// Close releases the store and cache and flushes the logger
func (e *Env) Close() {
	if e.cleanup != nil {
		e.cleanup()
	}
	_ = e.Logger.Sync()
}

// TranscriptionKey returns the key for the transcription provider, or override when set
func (e *Env) TranscriptionKey(override string) string {
	if k := strings.TrimSpace(override); k != "" {
		return k
	}
	return e.Keys.KeyFor(envconfig.ProviderOpenAI)
}

// TransformKey returns the key for the configured transform provider, or override when set
func (e *Env) TransformKey(override string) string {
	if k := strings.TrimSpace(override); k != "" {
		return k
	}
	return e.Keys.KeyFor(e.Expanded.Transform.Provider)
}

// ParseID parses a positive session id argument
func ParseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidField("id", fmt.Sprintf("%q is not a session id", arg))
	}
	return id, nil
}

// Describe turns an error into a one line message for the terminal
func Describe(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrMissingCredential):
		return "no API key: set OPENAI_API_KEY or GEMINI_API_KEY in .env, or pass --api-key"
	case apperrors.Is(err, apperrors.ErrNoTranscription):
		return "session has no transcript yet: run `sessions transcribe <id>` first"
	case apperrors.Is(err, apperrors.ErrAlreadyInProgress):
		return "another transcription or transformation is running for this session"
	}

	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		return "not found: " + err.Error()
	case apperrors.KindValidation:
		return "invalid input: " + err.Error()
	case apperrors.KindDevice:
		return "audio device error: " + err.Error()
	case apperrors.KindPersistence:
		return "storage error: " + err.Error()
	case apperrors.KindExternalService:
		return "AI service error: " + err.Error()
	case apperrors.KindConflict:
		return "conflict: " + err.Error()
	default:
		return err.Error()
	}
}

// Transcribe runs the transcription stage for id behind a spinner
func (e *Env) Transcribe(ctx context.Context, id int64, apiKey string) (*pipeline.TranscriptionResult, error) {
	var res *pipeline.TranscriptionResult
	err := Spinner(fmt.Sprintf("transcribing session %d", id), func() error {
		r := <-e.Orch.TranscribeAsync(ctx, id, apiKey)
		res = r.Value
		return r.Err
	})
	return res, err
}
