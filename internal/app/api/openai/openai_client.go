package openai

import (
	"sync"

	"github.com/sashabaranov/go-openai"
)

// ClientFactory hands out one client per API key. BaseURL overrides the
// default endpoint for proxies and tests.
type ClientFactory struct {
	BaseURL string

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewClientFactory creates a factory for the given base URL ("" for the default endpoint)
func NewClientFactory(baseURL string) *ClientFactory {
	return &ClientFactory{BaseURL: baseURL}
}

// Client returns the client for apiKey, creating it on first use
func (f *ClientFactory) Client(apiKey string) *openai.Client {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.clients == nil {
		f.clients = make(map[string]*openai.Client)
	}
	if c, ok := f.clients[apiKey]; ok {
		return c
	}

	config := openai.DefaultConfig(apiKey)
	if f.BaseURL != "" {
		config.BaseURL = f.BaseURL
	}
	c := openai.NewClientWithConfig(config)
	f.clients[apiKey] = c
	return c
}
