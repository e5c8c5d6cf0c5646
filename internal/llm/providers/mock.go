package providers

import (
	"context"
	"fmt"
	"sync"

	"github.com/praxos/cortex/internal/llm"
	"github.com/praxos/cortex/internal/types"
)

// MockCall records one request made against the mock provider.
type MockCall struct {
	Request llm.CompletionRequest
}

// MockProvider implements llm.Provider for tests. Responses are served in
// order; an optional RespondFunc overrides the scripted list.
type MockProvider struct {
	mu        sync.Mutex
	responses []string
	index     int
	calls     []MockCall

	// RespondFunc, when set, computes the response for each request
	// instead of the scripted list.
	RespondFunc func(req llm.CompletionRequest) (string, error)
}

// NewMock creates a mock provider with no scripted responses.
func NewMock() *MockProvider {
	return &MockProvider{}
}

// NewMockWithResponses creates a mock provider serving the given responses
// in order, cycling when exhausted.
func NewMockWithResponses(responses ...string) *MockProvider {
	return &MockProvider{responses: responses}
}

// Name returns the provider name.
func (p *MockProvider) Name() string {
	return "mock"
}

// Complete serves the next scripted response.
func (p *MockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, llm.TranslateError("mock", err)
	}

	p.mu.Lock()
	p.calls = append(p.calls, MockCall{Request: req})
	respond := p.RespondFunc
	var scripted string
	if respond == nil {
		if len(p.responses) == 0 {
			p.mu.Unlock()
			return nil, llm.NewCompletionError("mock", fmt.Errorf("no responses configured"))
		}
		scripted = p.responses[p.index%len(p.responses)]
		p.index++
	}
	p.mu.Unlock()

	content := scripted
	if respond != nil {
		var err error
		content, err = respond(req)
		if err != nil {
			return nil, err
		}
	}

	return &llm.CompletionResponse{
		Model:   "mock-model",
		Content: content,
		Usage: llm.TokenUsage{
			PromptTokens:     10,
			CompletionTokens: len(content) / 4,
			TotalTokens:      10 + len(content)/4,
		},
	}, nil
}

// Stream emits the scripted response as a single chunk plus a final.
func (p *MockProvider) Stream(ctx context.Context, req llm.CompletionRequest) (<-chan llm.StreamChunk, error) {
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(chan llm.StreamChunk, 2)
	out <- llm.StreamChunk{Content: resp.Content}
	out <- llm.StreamChunk{Done: true, Final: resp}
	close(out)
	return out, nil
}

// Health always reports healthy.
func (p *MockProvider) Health(ctx context.Context) types.HealthStatus {
	return types.Healthy("mock provider operational")
}

// Calls returns a copy of all recorded calls.
func (p *MockProvider) Calls() []MockCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]MockCall, len(p.calls))
	copy(out, p.calls)
	return out
}

// CallCount returns the number of completion calls made.
func (p *MockProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}
