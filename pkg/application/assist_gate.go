package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
	"github.com/felixgeelhaar/notewise/pkg/domain/text"
)

var (
	ErrInFlight          = errors.New("an assist request is already in flight")
	ErrInteractionClosed = errors.New("assist interaction has ended")
)

// AssistActions is the capability surface a host drives an interaction through.
type AssistActions interface {
	GenerateFromPrompt(prompt string) error
	Summarize() error
	Enhance() error
	Proofread() error
	Extend() error
	Available() Availability
}

// Availability holds the per-action enable flags for the presentation layer.
type Availability struct {
	Generate  bool `json:"generate"`
	Summarize bool `json:"summarize"`
	Enhance   bool `json:"enhance"`
	Proofread bool `json:"proofread"`
	Extend    bool `json:"extend"`
}

// AvailabilityFor computes the flags from a note snapshot. Generate is always
// enabled; the note-based actions need a non-empty note.
func AvailabilityFor(note ai.NoteState) Availability {
	hasText := note != nil && !note.IsEmpty()
	return Availability{
		Generate:  true,
		Summarize: hasText,
		Enhance:   hasText,
		Proofread: hasText,
		Extend:    hasText,
	}
}

func (a Availability) Enabled(op ai.Operation) bool {
	switch op {
	case ai.OpGenerate:
		return a.Generate
	case ai.OpSummarize:
		return a.Summarize
	case ai.OpEnhance:
		return a.Enhance
	case ai.OpProofread:
		return a.Proofread
	case ai.OpExtend:
		return a.Extend
	}
	return false
}

// GateOption configures an AssistGate.
type GateOption func(*AssistGate)

func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *AssistGate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

func WithMaxTokens(n int) GateOption {
	return func(g *AssistGate) { g.maxTokens = n }
}

// AssistGate runs at most one completion request for one open note.
// Preconditions are checked locally before any network call, and the result
// callback fires exactly once unless Close runs first.
type AssistGate struct {
	id        string
	provider  ai.Provider
	onResult  func(ai.Result)
	logger    *slog.Logger
	maxTokens int

	// Snapshot taken at construction.
	note      string
	words     int
	available Availability

	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	delivering sync.WaitGroup

	mu     sync.Mutex
	fsm    *ai.InteractionStateMachine
	closed bool
}

var _ AssistActions = (*AssistGate)(nil)

func NewAssistGate(ctx context.Context, note ai.NoteContent, provider ai.Provider, onResult func(ai.Result), opts ...GateOption) (*AssistGate, error) {
	if provider == nil {
		return nil, fmt.Errorf("assist gate requires a provider")
	}
	if onResult == nil {
		onResult = func(ai.Result) {}
	}

	g := &AssistGate{
		id:        uuid.NewString(),
		provider:  provider,
		onResult:  onResult,
		logger:    slog.Default(),
		maxTokens: ai.DefaultMaxTokens,
		available: AvailabilityFor(note),
	}
	if note != nil {
		g.note = note.Content()
		g.words = note.WordCount()
	}
	for _, opt := range opts {
		opt(g)
	}

	fsm, err := ai.NewInteractionStateMachine(g.id, g.available.Enabled)
	if err != nil {
		return nil, err
	}
	g.fsm = fsm
	g.ctx, g.cancel = context.WithCancel(ctx)
	return g, nil
}

func (g *AssistGate) GenerateFromPrompt(prompt string) error {
	return g.Dispatch(ai.OpGenerate, prompt)
}

func (g *AssistGate) Summarize() error { return g.Dispatch(ai.OpSummarize, "") }
func (g *AssistGate) Enhance() error   { return g.Dispatch(ai.OpEnhance, "") }
func (g *AssistGate) Proofread() error { return g.Dispatch(ai.OpProofread, "") }
func (g *AssistGate) Extend() error    { return g.Dispatch(ai.OpExtend, "") }

// Available returns the flags computed when the gate was opened.
func (g *AssistGate) Available() Availability {
	return g.available
}

// State returns the current interaction state.
func (g *AssistGate) State() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fsm.Current()
}

// Dispatch validates op against the snapshot and starts the request on its
// own goroutine. Validation failures are returned synchronously and leave the
// gate idle.
func (g *AssistGate) Dispatch(op ai.Operation, prompt string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrInteractionClosed
	}
	switch g.fsm.Current() {
	case ai.StateIdle:
	case ai.StateDispatched:
		return ErrInFlight
	default:
		return ErrInteractionClosed
	}

	if err := g.precondition(op, prompt); err != nil {
		g.logger.Debug("assist action rejected", "interaction_id", g.id, "operation", string(op), "reason", err.Error())
		return err
	}

	req, err := ai.NewRequest(op, g.note, prompt, g.maxTokens)
	if err != nil {
		return err
	}
	if err := g.fsm.Transition(string(op)); err != nil {
		return fmt.Errorf("dispatch %s: %w", op, err)
	}

	g.logger.Debug("assist request dispatched",
		"interaction_id", g.id,
		"request_id", req.ID,
		"operation", string(op),
	)

	g.wg.Add(1)
	go g.run(req)
	return nil
}

func (g *AssistGate) precondition(op ai.Operation, prompt string) error {
	if op == ai.OpGenerate {
		if strings.TrimSpace(prompt) == "" {
			return ai.NewValidationError(ai.MsgEnterPrompt)
		}
		return nil
	}
	if !slices.Contains(ai.Operations(), op) {
		return ai.NewValidationError(fmt.Sprintf("%s: %q", ai.MsgUnknownAction, op))
	}
	if !g.available.Enabled(op) {
		return ai.NewValidationError(ai.MsgNoteEmpty)
	}
	if op == ai.OpSummarize && g.words < ai.MinSummarizeWords {
		return ai.NewValidationError(ai.MsgSummarizeWords)
	}
	return nil
}

func (g *AssistGate) run(req ai.CompletionRequest) {
	defer g.wg.Done()

	var result ai.Result
	resp, err := g.provider.Complete(g.ctx, req)
	if err != nil {
		result = ai.Failed(req.Operation, err)
	} else {
		result = ai.Success(req.Operation, text.Normalize(resp.Text), resp.Source)
	}
	g.deliver(req, result)
}

func (g *AssistGate) deliver(req ai.CompletionRequest, result ai.Result) {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.logger.Debug("assist result dropped after close",
			"interaction_id", g.id,
			"request_id", req.ID,
			"operation", string(req.Operation),
		)
		return
	}
	event := ai.EventSucceed
	if !result.OK() {
		event = ai.EventFail
	}
	if err := g.fsm.Transition(event); err != nil {
		g.logger.Error("assist state transition failed", "interaction_id", g.id, "error", err)
	}
	g.delivering.Add(1)
	g.mu.Unlock()

	defer g.delivering.Done()
	g.onResult(result)
}

// Close tears the interaction down. The in-flight request is cancelled and a
// result that has not been delivered yet is dropped. If the callback is
// already running, Close returns once it has finished, so no callback runs
// after Close. Close must not be called from the callback itself.
func (g *AssistGate) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		g.delivering.Wait()
		return
	}
	g.closed = true
	_ = g.fsm.Transition(ai.EventClose)
	g.mu.Unlock()

	g.cancel()
	g.delivering.Wait()
}

// Wait blocks until the request goroutine, if any, has returned.
func (g *AssistGate) Wait() {
	g.wg.Wait()
}
