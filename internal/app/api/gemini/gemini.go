package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"audio-sessions/internal/app/api"
	"audio-sessions/internal/app/api/openai/chat"
	"audio-sessions/internal/app/model"
)

// DefaultModel is the Gemini model used when none is configured
const DefaultModel = "gemini-2.5-flash"

// Options tune the Gemini request
type Options struct {
	Model     string
	Verbosity string
	// BaseURL overrides the API endpoint, used by tests
	BaseURL string
}

// Transformer rewrites transcripts with a Gemini model
type Transformer struct {
	opts Options
}

var _ api.Transformer = (*Transformer)(nil)

// NewTransformer creates a Gemini based transformer
func NewTransformer(opts Options) *Transformer {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Transformer{opts: opts}
}

func (t *Transformer) Transform(ctx context.Context, text string, prompt model.Prompt, apiKey string) (api.Transformation, error) {
	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if t.opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: t.opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return api.Transformation{}, fmt.Errorf("create gemini client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, t.opts.Model, genai.Text(text), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(chat.SystemPrompt(prompt, t.opts.Verbosity), genai.RoleUser),
	})
	if err != nil {
		return api.Transformation{}, fmt.Errorf("generateContent failed: %w", err)
	}

	out := resp.Text()
	if out == "" {
		return api.Transformation{}, errors.New("generateContent returned no text")
	}

	var tokens int
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return api.Transformation{Text: out, Tokens: tokens}, nil
}
