package api

import (
	"context"

	"audio-sessions/internal/app/model"
)

// Transcription is the result of a speech-to-text call
type Transcription struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Tokens   int     `json:"tokens_used"`
}

// Transformation is the result of a prompt-driven text transformation
type Transformation struct {
	Text   string `json:"text"`
	Tokens int    `json:"tokens_used"`
}

// Transcriber converts an audio file to text using the caller's API key.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, apiKey string) (Transcription, error)
}

// Transformer rewrites a transcript according to a prompt.
type Transformer interface {
	Transform(ctx context.Context, text string, prompt model.Prompt, apiKey string) (Transformation, error)
}
