package provider

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/praxislabs/praxis/internal/metrics"
)

// Config represents the configuration for a provider
type Config struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"` // openai, anthropic, local, custom, ollama, mock
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key,omitempty"`
	Model    string `json:"model"`
}

// Registered wraps a provider with its configuration and protocol. Metrics
// may be nil, in which case requests are not counted.
type Registered struct {
	Config   *Config
	Protocol Protocol
	Metrics  *metrics.Metrics
}

// Registry manages registered AI providers
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Registered
	metrics   *metrics.Metrics
}

// NewRegistry creates a new provider registry. Pass nil metrics to skip
// request counting.
func NewRegistry(m *metrics.Metrics) *Registry {
	return &Registry{
		providers: make(map[string]*Registered),
		metrics:   m,
	}
}

// Register registers a new provider
func (r *Registry) Register(config *Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[config.ID]; exists {
		return fmt.Errorf("provider %s already registered", config.ID)
	}

	var protocol Protocol
	switch config.Type {
	case "openai", "anthropic", "local", "custom":
		// All use OpenAI-compatible protocol
		protocol = NewOpenAIProvider(config.Endpoint, config.APIKey)
	case "ollama":
		protocol = NewOllamaProvider(config.Endpoint)
	case "mock":
		protocol = NewMockProvider()
	default:
		return fmt.Errorf("unsupported provider type: %s", config.Type)
	}

	r.providers[config.ID] = &Registered{Config: config, Protocol: protocol, Metrics: r.metrics}
	return nil
}

// Get retrieves a registered provider by ID
func (r *Registry) Get(id string) (*Registered, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, exists := r.providers[id]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", id)
	}
	return p, nil
}

// List returns all registered providers
func (r *Registry) List() []*Registered {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Registered, 0, len(r.providers))
	for _, p := range r.providers {
		out = append(out, p)
	}
	return out
}

// GenerateText sends a single-prompt completion through the registered
// provider and returns the raw text reply.
func (p *Registered) GenerateText(ctx context.Context, systemPrompt, userPrompt string, temperature float64) (string, error) {
	messages := make([]ChatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: userPrompt})

	if p.Metrics != nil {
		p.Metrics.ProviderRequests.WithLabelValues(p.Config.ID).Inc()
	}
	start := time.Now()
	resp, err := p.Protocol.CreateChatCompletion(ctx, &ChatCompletionRequest{
		Model:       p.Config.Model,
		Messages:    messages,
		Temperature: temperature,
	})
	if p.Metrics != nil {
		p.Metrics.ProviderLatency.WithLabelValues(p.Config.ID).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		if p.Metrics != nil {
			p.Metrics.ProviderErrors.WithLabelValues(p.Config.ID).Inc()
		}
		return "", fmt.Errorf("failed to generate text: %w", err)
	}
	content := resp.Content()
	if content == "" {
		return "", fmt.Errorf("provider returned empty completion")
	}
	return content, nil
}
