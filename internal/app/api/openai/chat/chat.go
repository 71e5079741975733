package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"audio-sessions/internal/app/api"
	openai2 "audio-sessions/internal/app/api/openai"
	"audio-sessions/internal/app/model"
)

// DefaultModel is the chat model used when none is configured
const DefaultModel = "gpt-5"

const maxOutputTokens = 4096

// Options tune the chat completion request
type Options struct {
	Model string
	// ReasoningEffort is one of minimal, low, medium, high
	ReasoningEffort string
	// Verbosity is one of low, medium, high
	Verbosity string
}

// Transformer rewrites transcripts with an OpenAI chat model
type Transformer struct {
	clients *openai2.ClientFactory
	opts    Options
}

var _ api.Transformer = (*Transformer)(nil)

// NewTransformer creates a chat based transformer
func NewTransformer(clients *openai2.ClientFactory, opts Options) *Transformer {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	return &Transformer{clients: clients, opts: opts}
}

func (t *Transformer) Transform(ctx context.Context, text string, prompt model.Prompt, apiKey string) (api.Transformation, error) {
	request := openai.ChatCompletionRequest{
		Model:               t.opts.Model,
		ReasoningEffort:     t.opts.ReasoningEffort,
		MaxCompletionTokens: maxOutputTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt(prompt, t.opts.Verbosity),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	}

	resp, err := t.clients.Client(apiKey).CreateChatCompletion(ctx, request)
	if err != nil {
		return api.Transformation{}, fmt.Errorf("createChatCompletion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return api.Transformation{}, errors.New("createChatCompletion returned no choices")
	}

	return api.Transformation{
		Text:   resp.Choices[0].Message.Content,
		Tokens: resp.Usage.TotalTokens,
	}, nil
}

// SystemPrompt is the instruction for prompt with an optional verbosity hint.
func SystemPrompt(prompt model.Prompt, verbosity string) string {
	instruction := prompt.Instruction()
	if verbosity == "" {
		return instruction
	}
	return fmt.Sprintf("%s\n\nKeep the answer's verbosity %s.", instruction, verbosity)
}
