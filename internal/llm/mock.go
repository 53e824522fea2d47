package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error
}

// MockProvider is a deterministic Provider for testing.
// It returns canned responses in FIFO order and records all requests.
type MockProvider struct {
	mu        sync.Mutex
	responses []MockResponse
	Calls     []Request
}

// NewMockProvider creates a MockProvider with the given canned responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{responses: responses}
}

// Generate returns the next canned response or ErrProviderUnavailable if
// the queue is empty.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if len(m.responses) == 0 {
		return nil, &ErrProviderUnavailable{Err: nil}
	}

	resp := m.responses[0]
	m.responses = m.responses[1:]

	if resp.Err != nil {
		return nil, resp.Err
	}

	return &Response{
		Content:    resp.Content,
		Usage:      resp.Usage,
		Model:      "mock",
		StopReason: "end",
	}, nil
}

// ModelID returns "mock".
func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse appends a canned response to the queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockImage is a canned result for the MockImageProvider.
type MockImage struct {
	Data     []byte
	MIMEType string
	Err      error
}

// MockImageProvider is a deterministic ImageProvider for testing.
// Canned results are returned in FIFO order. Once the queue is empty,
// Fallback (if set) answers every further call.
type MockImageProvider struct {
	mu       sync.Mutex
	results  []MockImage
	Fallback *MockImage
	Calls    []ImageRequest
}

// NewMockImageProvider creates a MockImageProvider with canned results.
func NewMockImageProvider(results ...MockImage) *MockImageProvider {
	return &MockImageProvider{results: results}
}

func (m *MockImageProvider) GenerateImage(_ context.Context, req ImageRequest) (*ImageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	var res MockImage
	switch {
	case len(m.results) > 0:
		res = m.results[0]
		m.results = m.results[1:]
	case m.Fallback != nil:
		res = *m.Fallback
	default:
		return nil, ErrNoImage
	}

	if res.Err != nil {
		return nil, res.Err
	}
	mimeType := res.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}
	return &ImageResponse{Data: res.Data, MIMEType: mimeType, Model: "mock-image"}, nil
}

// ModelID returns "mock-image".
func (m *MockImageProvider) ModelID() string {
	return "mock-image"
}

// CallCount returns the number of GenerateImage calls made.
func (m *MockImageProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
