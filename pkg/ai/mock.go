package ai

import (
	"context"
	"sync/atomic"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// MockProvider returns a fixed text or error. Block, when set, holds every
// call until it is closed or the context ends.
type MockProvider struct {
	Model string
	Text  string
	Err   error
	Block chan struct{}

	calls atomic.Int32
}

var _ ai.Provider = (*MockProvider)(nil)

func (m *MockProvider) ID() string {
	return "mock:" + m.Model
}

func (m *MockProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	m.calls.Add(1)

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ai.NewNetworkError(ctx.Err())
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	text := m.Text
	if text == "" {
		text = "mock completion for " + string(req.Operation)
	}
	return &ai.CompletionResponse{Text: text, Model: m.Model, Source: ai.SourceRemote}, nil
}

// Calls reports how many times Complete ran.
func (m *MockProvider) Calls() int {
	return int(m.calls.Load())
}
