package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// AssistService runs one gated interaction per call for request/response
// hosts such as the CLI, the HTTP API and the MCP server.
type AssistService struct {
	provider  ai.Provider
	logger    *slog.Logger
	maxTokens int
	recorder  ai.InteractionRecorder
}

// ServiceOption configures an AssistService.
type ServiceOption func(*AssistService)

// WithRecorder stores a summary of every dispatched interaction.
func WithRecorder(r ai.InteractionRecorder) ServiceOption {
	return func(s *AssistService) { s.recorder = r }
}

func NewAssistService(provider ai.Provider, logger *slog.Logger, maxTokens int, opts ...ServiceOption) *AssistService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &AssistService{provider: provider, logger: logger, maxTokens: maxTokens}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Provider returns the completion backend in use.
func (s *AssistService) Provider() ai.Provider {
	return s.provider
}

// Actions reports which actions are enabled for the given note body.
func (s *AssistService) Actions(note string) Availability {
	return AvailabilityFor(ai.NewNote(note))
}

// Run opens a gate over note, dispatches op and waits for its single result.
// Validation and remote failures are returned as errors; the Result is still
// filled in so hosts can report the operation. Cancelling ctx tears the
// interaction down.
func (s *AssistService) Run(ctx context.Context, op ai.Operation, note, prompt string) (ai.Result, error) {
	results := make(chan ai.Result, 1)
	gate, err := NewAssistGate(ctx, ai.NewNote(note), s.provider,
		func(r ai.Result) { results <- r },
		WithGateLogger(s.logger),
		WithMaxTokens(s.maxTokens),
	)
	if err != nil {
		return ai.Failed(op, err), err
	}
	defer gate.Close()

	if err := gate.Dispatch(op, prompt); err != nil {
		return ai.Failed(op, err), err
	}

	start := time.Now()
	var res ai.Result
	select {
	case res = <-results:
	case <-ctx.Done():
		gate.Close()
		res = ai.Failed(op, ai.NewNetworkError(ctx.Err()))
	}
	s.record(res, time.Since(start))
	return res, res.Err
}

func (s *AssistService) record(res ai.Result, d time.Duration) {
	if s.recorder == nil {
		return
	}
	rec := ai.InteractionRecord{
		Operation: res.Operation,
		Provider:  s.provider.ID(),
		Source:    res.Source,
		Kind:      res.Kind(),
		Duration:  d,
	}
	if err := s.recorder.RecordInteraction(rec); err != nil {
		s.logger.Warn("failed to record assist history", "operation", string(res.Operation), "error", err)
	}
}
