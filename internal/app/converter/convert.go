package converter

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"audio-sessions/internal/app/model"
	"audio-sessions/internal/app/pipeline"
)

// Converter transcribes many sessions with bounded parallelism.
type Converter struct {
	orch     *pipeline.Orchestrator
	logger   *zap.Logger
	progress *ProgressManager
}

// Outcome is the result of one session in a batch
type Outcome struct {
	SessionID int64
	Err       error
}

func NewConverter(orch *pipeline.Orchestrator, logger *zap.Logger, config ProgressConfig) *Converter {
	return &Converter{
		orch:     orch,
		logger:   logger,
		progress: NewProgressManager(config),
	}
}

func (c *Converter) Close() error {
	c.progress.Shutdown()
	return nil
}

// filterUntranscribed keeps sessions without a transcript, at most convertCount when positive.
func filterUntranscribed(sessions []model.Session, convertCount int) []model.Session {
	toProcess := make([]model.Session, 0, len(sessions))
	for _, s := range sessions {
		if s.HasTranscript() {
			continue
		}
		toProcess = append(toProcess, s)
		if convertCount > 0 && len(toProcess) >= convertCount {
			break
		}
	}
	return toProcess
}

// TranscribePending transcribes every untranscribed session matching query.
// Failures are reported per session and do not stop the batch.
func (c *Converter) TranscribePending(ctx context.Context, query, apiKey string, convertCount, parallel int) ([]Outcome, error) {
	sessions, err := c.orch.Store().Find(ctx, query)
	if err != nil {
		return nil, err
	}

	toProcess := filterUntranscribed(sessions, convertCount)
	if len(toProcess) == 0 {
		return nil, nil
	}
	if parallel < 1 {
		parallel = 1
	}

	bar := c.progress.CreateBar(len(toProcess), "Transcribing sessions")
	defer c.progress.Wait()

	outcomes := make([]Outcome, len(toProcess))
	var wg sync.WaitGroup
	sem := make(chan struct{}, parallel)

	for i, s := range toProcess {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			defer bar.Increment()

			sem <- struct{}{}
			_, err := c.orch.Transcribe(ctx, id, apiKey)
			<-sem

			outcomes[i] = Outcome{SessionID: id, Err: err}
			if err != nil {
				c.logger.Warn("batch transcription failed", zap.Int64("session_id", id), zap.Error(err))
			}
		}(i, s.ID)
	}
	wg.Wait()
	return outcomes, nil
}
