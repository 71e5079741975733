//go:build wireinject
// +build wireinject

package app

import (
	"context"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"audio-sessions/internal/app/config"
	"audio-sessions/internal/app/pipeline"
	"audio-sessions/internal/app/storage"
)

var pipelineSet = wire.NewSet(
	ProvideStore,
	ProvideClientFactory,
	ProvideTranscriber,
	ProvideTransformer,
	ProvideTranscriptCache,
	ProvideMetrics,
	pipeline.NewOrchestrator,
)

// InitializeOrchestrator builds the pipeline from expanded settings.
// The cleanup func closes the store and cache.
func InitializeOrchestrator(ctx context.Context, settings *config.Settings, logger *zap.Logger, reg prometheus.Registerer) (*pipeline.Orchestrator, func(), error) {
	wire.Build(pipelineSet)
	return nil, nil, nil
}

func InitializeArchiver(ctx context.Context, settings *config.Settings) (storage.Archiver, error) {
	wire.Build(ProvideArchiver)
	return nil, nil
}
