package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"audio-sessions/internal/app/api"
	"audio-sessions/internal/app/api/gemini"
	openai2 "audio-sessions/internal/app/api/openai"
	"audio-sessions/internal/app/api/openai/chat"
	"audio-sessions/internal/app/api/openai/whisper"
	"audio-sessions/internal/app/cache"
	"audio-sessions/internal/app/config"
	apperrors "audio-sessions/internal/app/errors"
	"audio-sessions/internal/app/metrics"
	"audio-sessions/internal/app/repository"
	"audio-sessions/internal/app/repository/pg"
	"audio-sessions/internal/app/repository/sqlite"
	"audio-sessions/internal/app/storage"
	envconfig "audio-sessions/internal/config"
)

// Providers expect settings that already went through Settings.Expanded.

// ProvideStore opens the configured session store
func ProvideStore(ctx context.Context, settings *config.Settings) (repository.SessionStore, func(), error) {
	return OpenStore(ctx, settings.Database.Driver, settings.Database.DSN)
}

// OpenStore opens a store by driver name. An empty postgres dsn falls back to the DB_* environment.
func OpenStore(ctx context.Context, driver, dsn string) (repository.SessionStore, func(), error) {
	var store repository.SessionStore

	switch driver {
	case config.DriverSQLite, "sqlite3":
		sdb, err := sqlite.NewSQLiteDB(dsn)
		if err != nil {
			return nil, nil, apperrors.ErrPersistence.With(err)
		}
		store = sdb
	case config.DriverPostgres:
		if dsn == "" {
			dsn = envconfig.GetNetworkConfig().GetPostgresConnectionString()
		}
		pdb, err := pg.Open(ctx, dsn)
		if err != nil {
			return nil, nil, apperrors.ErrPersistence.With(err)
		}
		store = pdb
	default:
		return nil, nil, apperrors.InvalidField("database.driver", fmt.Sprintf("unknown driver %q", driver))
	}

	return store, func() { store.Close() }, nil
}

// ProvideClientFactory shares OpenAI clients per API key
func ProvideClientFactory(settings *config.Settings) *openai2.ClientFactory {
	return openai2.NewClientFactory(settings.Transcription.BaseURL)
}

// ProvideTranscriber returns the OpenAI speech-to-text adapter
func ProvideTranscriber(settings *config.Settings, clients *openai2.ClientFactory) api.Transcriber {
	return whisper.NewRemoteTranscriber(clients, whisper.Options{
		Model:    settings.Transcription.Model,
		Language: settings.Transcription.Language,
		Prompt:   settings.Transcription.ContextPrompt,
	})
}

// ProvideTransformer selects the transformation adapter by transform.provider
func ProvideTransformer(settings *config.Settings, clients *openai2.ClientFactory) api.Transformer {
	t := settings.Transform
	if t.Provider == envconfig.ProviderGemini {
		return gemini.NewTransformer(gemini.Options{
			Model:     t.Model,
			Verbosity: t.Verbosity,
			BaseURL:   t.BaseURL,
		})
	}

	if t.BaseURL != "" && t.BaseURL != clients.BaseURL {
		clients = openai2.NewClientFactory(t.BaseURL)
	}
	return chat.NewTransformer(clients, chat.Options{
		Model:           t.Model,
		ReasoningEffort: t.ReasoningEffort,
		Verbosity:       t.Verbosity,
	})
}

// ProvideTranscriptCache prefers redis when configured, then the cache directory.
// An unreachable redis falls back to the directory cache.
func ProvideTranscriptCache(ctx context.Context, settings *config.Settings, logger *zap.Logger) (cache.TranscriptCache, func(), error) {
	tc := settings.Transcription
	if tc.RedisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, tc.RedisAddr, settings.CacheTTL())
		if err == nil {
			return rc, func() { rc.Close() }, nil
		}
		logger.Warn("redis transcript cache unavailable", zap.String("addr", tc.RedisAddr), zap.Error(err))
	}

	if tc.CacheDir == "" {
		return cache.Nop{}, func() {}, nil
	}
	fc, err := cache.NewFileCache(tc.CacheDir)
	if err != nil {
		return nil, nil, apperrors.ErrIO.With(err)
	}
	return fc, func() {}, nil
}

// ProvideMetrics registers pipeline collectors with reg
func ProvideMetrics(reg prometheus.Registerer) *metrics.PipelineMetrics {
	return metrics.NewPipelineMetrics(reg)
}

// ProvideArchiver connects to the archive bucket. It fails when no endpoint is configured.
func ProvideArchiver(ctx context.Context, settings *config.Settings) (storage.Archiver, error) {
	a := settings.Archive
	archiver, err := storage.NewMinioArchiver(ctx, storage.Config{
		Endpoint:  a.Endpoint,
		AccessKey: a.AccessKey,
		SecretKey: a.SecretKey,
		Bucket:    a.Bucket,
		UseSSL:    a.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	return archiver, nil
}
