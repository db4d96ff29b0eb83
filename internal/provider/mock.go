package provider

import (
	"context"
	"sync"
	"time"
)

// MockProvider is a Protocol implementation for tests and offline use.
// Replies are popped from a scripted queue; when the queue is empty every
// request fails with Err (if set) or echoes the last user message.
type MockProvider struct {
	mu      sync.Mutex
	replies []string
	Err     error
}

// NewMockProvider creates a mock provider with no scripted replies
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

var _ Protocol = (*MockProvider)(nil)

// QueueReply appends a scripted reply
func (p *MockProvider) QueueReply(content string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, content)
}

func (p *MockProvider) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.replies) == 0 && p.Err != nil {
		return nil, p.Err
	}

	content := "mock response"
	if len(p.replies) > 0 {
		content = p.replies[0]
		p.replies = p.replies[1:]
	} else if len(req.Messages) > 0 {
		content = req.Messages[len(req.Messages)-1].Content
	}

	resp := &ChatCompletionResponse{
		ID:      "mock-completion",
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
	}
	resp.Choices = append(resp.Choices, struct {
		Index   int         `json:"index"`
		Message ChatMessage `json:"message"`
		Finish  string      `json:"finish_reason"`
	}{
		Index:   0,
		Message: ChatMessage{Role: "assistant", Content: content},
		Finish:  "stop",
	})
	return resp, nil
}
