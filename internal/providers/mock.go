package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockClient is an LLMClient for testing.
type MockClient struct {
	Latency      time.Duration
	ShouldFail   bool
	ResponseText string

	// Respond, when set, produces the reply for each request and overrides
	// ResponseText and ShouldFail.
	Respond func(req *ChatRequest) (string, error)

	requestCount atomic.Int64

	mu       sync.Mutex
	requests []*ChatRequest
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{ResponseText: "mock response"}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestCount returns how many requests the mock has received.
func (c *MockClient) RequestCount() int {
	return int(c.requestCount.Load())
}

// Requests returns every request received so far.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	result := &ChatResult{
		RequestID: fmt.Sprintf("mock-%d", count),
		Provider:  MockClientName,
		ModelUsed: req.Model,
		Attempts:  1,
	}

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			result.ErrorType = "context_cancelled"
			result.ErrorMessage = ctx.Err().Error()
			return result, ctx.Err()
		}
	}

	content := c.ResponseText
	var err error
	switch {
	case c.Respond != nil:
		content, err = c.Respond(req)
	case c.ShouldFail:
		err = fmt.Errorf("mock client configured to fail")
	}
	result.ExecutionTime = time.Since(start)
	if err != nil {
		result.ErrorType = "mock_failure"
		result.ErrorMessage = err.Error()
		return result, err
	}

	result.Success = true
	result.Content = content
	return result, nil
}

// MockTTS is a TTSProvider for testing. It returns the input text as audio.
type MockTTS struct {
	ShouldFail bool

	mu    sync.Mutex
	calls []*TTSRequest
}

// Name returns the provider identifier.
func (m *MockTTS) Name() string { return "mock-tts" }

// Calls returns every request received so far.
func (m *MockTTS) Calls() []*TTSRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*TTSRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// Generate records the request and echoes the text back as bytes.
func (m *MockTTS) Generate(_ context.Context, req *TTSRequest) (*TTSResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.ShouldFail {
		return &TTSResult{ErrorMessage: "mock tts failure"}, fmt.Errorf("mock tts failure")
	}
	return &TTSResult{Success: true, Audio: []byte(req.Text), Format: "mp3", CharCount: len(req.Text)}, nil
}

var (
	_ LLMClient   = (*MockClient)(nil)
	_ TTSProvider = (*MockTTS)(nil)
)
