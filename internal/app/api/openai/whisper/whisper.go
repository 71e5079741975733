package whisper

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"audio-sessions/internal/app/api"
	openai2 "audio-sessions/internal/app/api/openai"
)

// DefaultModel is the transcription model used when none is configured
const DefaultModel = "gpt-4o-transcribe"

// Options tune the transcription request
type Options struct {
	Model    string
	Language string
	// Prompt gives the model context such as domain vocabulary
	Prompt string
}

// RemoteTranscriber implements remote transcription using the OpenAI API.
type RemoteTranscriber struct {
	clients *openai2.ClientFactory
	opts    Options
}

var _ api.Transcriber = (*RemoteTranscriber)(nil)

// NewRemoteTranscriber creates a new RemoteTranscriber instance.
func NewRemoteTranscriber(clients *openai2.ClientFactory, opts Options) *RemoteTranscriber {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &RemoteTranscriber{clients: clients, opts: opts}
}

// Transcribe uploads the audio file to the OpenAI transcription endpoint.
func (rt *RemoteTranscriber) Transcribe(ctx context.Context, audioPath, apiKey string) (api.Transcription, error) {
	req := openai.AudioRequest{
		Model:    rt.opts.Model,
		FilePath: audioPath,
		Language: rt.opts.Language,
		Prompt:   rt.opts.Prompt,
		Format:   openai.AudioResponseFormatJSON,
	}
	resp, err := rt.clients.Client(apiKey).CreateTranscription(ctx, req)
	if err != nil {
		return api.Transcription{}, fmt.Errorf("createTranscription failed: %w", err)
	}

	language := resp.Language
	if language == "" {
		language = rt.opts.Language
	}

	return api.Transcription{
		Text:     resp.Text,
		Language: language,
		Duration: resp.Duration,
	}, nil
}
