package pipeline

import (
	"context"

	"audio-sessions/internal/app/model"
)

// Result is the single notification delivered by an async stage
type Result[T any] struct {
	Value *T
	Err   error
}

func runAsync[T any](fn func() (*T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		v, err := fn()
		ch <- Result[T]{Value: v, Err: err}
	}()
	return ch
}

// TranscribeAsync runs Transcribe on its own goroutine. The channel receives exactly one value.
func (o *Orchestrator) TranscribeAsync(ctx context.Context, id int64, apiKey string) <-chan Result[TranscriptionResult] {
	return runAsync(func() (*TranscriptionResult, error) {
		return o.Transcribe(ctx, id, apiKey)
	})
}

// TransformAsync runs Transform on its own goroutine. The channel receives exactly one value.
func (o *Orchestrator) TransformAsync(ctx context.Context, id int64, prompt model.Prompt, apiKey string) <-chan Result[TransformationResult] {
	return runAsync(func() (*TransformationResult, error) {
		return o.Transform(ctx, id, prompt, apiKey)
	})
}
