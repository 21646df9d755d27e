package llm

import (
	"context"
	"sync"
)

// MockResponse is one scripted reply. A non-nil Err is returned instead of
// a response.
type MockResponse struct {
	Content   string
	Usage     Usage
	Truncated bool
	Err       error
}

// MockProvider replays scripted replies in order and records every request.
// Once the script runs out it answers ErrProviderUnavailable.
type MockProvider struct {
	mu     sync.Mutex
	script []MockResponse
	calls  []Request

	// Block makes Generate wait for ctx to end and return its error.
	Block bool
}

func NewMockProvider(script ...MockResponse) *MockProvider {
	return &MockProvider{script: script}
}

func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	next, ok, block := m.record(req)
	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if !ok {
		return nil, &ErrProviderUnavailable{}
	}
	if next.Err != nil {
		return nil, next.Err
	}

	resp := &Response{Content: next.Content, Usage: next.Usage, Model: "mock", StopReason: StopEnd}
	if next.Truncated {
		resp.StopReason = StopMaxTokens
	}
	return resp, nil
}

// record logs req and pops the next scripted reply unless blocking.
func (m *MockProvider) record(req Request) (MockResponse, bool, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.Block {
		return MockResponse{}, false, true
	}
	if len(m.script) == 0 {
		return MockResponse{}, false, false
	}
	next := m.script[0]
	m.script = m.script[1:]
	return next, true, false
}

func (m *MockProvider) ModelID() string { return "mock" }

// AddResponse appends a reply to the script.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, resp)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastCall returns the most recent request, or false if none was made.
func (m *MockProvider) LastCall() (Request, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return Request{}, false
	}
	return m.calls[len(m.calls)-1], true
}
