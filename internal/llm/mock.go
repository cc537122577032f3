package llm

import (
	"context"
	"strings"
	"sync"

	"github.com/degreefyd/assistant/internal/models"
)

// MockClient is a scripted Client for tests and offline runs. Unset hooks
// fall back to canned behavior: Complete returns "", Generate echoes the
// query and Stream yields the generated answer word by word.
type MockClient struct {
	CompleteFunc func(ctx context.Context, req FastRequest) (string, error)
	GenerateFunc func(ctx context.Context, req GenerateRequest) (string, error)
	StreamFunc   func(ctx context.Context, req GenerateRequest) models.Stream

	mu        sync.Mutex
	fast      []FastRequest
	generated []GenerateRequest
	streamed  []GenerateRequest
}

// NewMockClient returns a MockClient with no hooks set.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Complete(ctx context.Context, req FastRequest) (string, error) {
	m.mu.Lock()
	m.fast = append(m.fast, req)
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

func (m *MockClient) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.mu.Lock()
	m.generated = append(m.generated, req)
	m.mu.Unlock()
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return "Answer: " + req.Query, nil
}

func (m *MockClient) Stream(ctx context.Context, req GenerateRequest) models.Stream {
	m.mu.Lock()
	m.streamed = append(m.streamed, req)
	m.mu.Unlock()
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req)
	}
	var parts []string
	for i, w := range strings.Fields("Answer: " + req.Query) {
		if i > 0 {
			w = " " + w
		}
		parts = append(parts, w)
	}
	return models.NewStaticStream(parts...)
}

// FastCalls returns the fast-mode requests received so far.
func (m *MockClient) FastCalls() []FastRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FastRequest(nil), m.fast...)
}

// GenerateCalls returns the non-streaming generation requests received so far.
func (m *MockClient) GenerateCalls() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateRequest(nil), m.generated...)
}

// StreamCalls returns the streaming generation requests received so far.
func (m *MockClient) StreamCalls() []GenerateRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerateRequest(nil), m.streamed...)
}
