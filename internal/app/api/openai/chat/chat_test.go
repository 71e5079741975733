package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	openai2 "audio-sessions/internal/app/api/openai"
	"audio-sessions/internal/app/model"
)

func TestTransformer_Transform(t *testing.T) {
	var got openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-chat", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Short summary"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 2, "total_tokens": 42}
		}`))
	}))
	defer server.Close()

	tr := NewTransformer(openai2.NewClientFactory(server.URL+"/v1"), Options{ReasoningEffort: "low", Verbosity: "low"})
	result, err := tr.Transform(context.Background(), "long transcript", model.Summarize(), "sk-chat")
	require.NoError(t, err)

	assert.Equal(t, "Short summary", result.Text)
	assert.Equal(t, 42, result.Tokens)

	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, "low", got.ReasoningEffort)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, model.Summarize().Instruction())
	assert.Equal(t, "long transcript", got.Messages[1].Content)
}

func TestTransformer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		response string
		contains string
	}{
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			response: `{"error": {"message": "boom", "type": "server_error"}}`,
			contains: "500",
		},
		{
			name:     "no choices",
			status:   http.StatusOK,
			response: `{"id": "x", "choices": []}`,
			contains: "no choices",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			tr := NewTransformer(openai2.NewClientFactory(server.URL+"/v1"), Options{})
			_, err := tr.Transform(context.Background(), "text", model.Custom("do it"), "sk")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestSystemPrompt(t *testing.T) {
	assert.Equal(t, "my words", SystemPrompt(model.Custom("my words"), ""))
	assert.Contains(t, SystemPrompt(model.Structure(), "high"), "verbosity high")
}
