package ai

import (
	"context"
	"sync"
)

// MockReply is one scripted result of a MockProvider call.
type MockReply struct {
	Response string
	Err      error
}

// MockProvider is a test double for AI providers. Scripted replies are
// returned in order; once they run out every call returns Response and Err.
type MockProvider struct {
	Response string
	Err      error

	mu          sync.Mutex
	script      []MockReply
	calls       int
	lastRequest *CompletionRequest
}

// NewMockProvider creates a MockProvider that returns the given response.
func NewMockProvider(response string) *MockProvider {
	return &MockProvider{Response: response}
}

// NewScriptedProvider creates a MockProvider that plays replies in order.
func NewScriptedProvider(replies ...MockReply) *MockProvider {
	return &MockProvider{script: replies}
}

func (m *MockProvider) Complete(_ context.Context, req CompletionRequest) (CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastRequest = &req
	m.calls++

	reply := MockReply{Response: m.Response, Err: m.Err}
	if len(m.script) > 0 {
		reply, m.script = m.script[0], m.script[1:]
	}
	if reply.Err != nil {
		return CompletionResponse{}, reply.Err
	}
	return CompletionResponse{
		Content:      reply.Response,
		Model:        "mock",
		InputTokens:  len(req.Prompt),
		OutputTokens: len(reply.Response),
	}, nil
}

// Calls returns the number of Complete calls made so far.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request, or nil.
func (m *MockProvider) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}

func (m *MockProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "mock", Name: "Mock Model", MaxTokens: 4096, Description: "Test mock"},
	}
}

func (m *MockProvider) HealthCheck(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Err
}
