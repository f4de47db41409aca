package ai

import (
	"fmt"

	"github.com/felixgeelhaar/statekit"
)

// Interaction states. Untyped so they convert to statekit.StateID.
const (
	StateIdle       = "idle"
	StateDispatched = "dispatched"
	StateSucceeded  = "succeeded"
	StateFailed     = "failed"
	StateClosed     = "closed"
)

// Interaction events besides the per-operation dispatch events.
const (
	EventSucceed = "succeed"
	EventFail    = "fail"
	EventClose   = "close"
)

// Dispatch events carry the operation name.
const (
	eventGenerate  = "generate"
	eventSummarize = "summarize"
	eventEnhance   = "enhance"
	eventProofread = "proofread"
	eventExtend    = "extend"
)

// InteractionContext carries the availability snapshot taken when the
// interaction opened.
type InteractionContext struct {
	InteractionID string
	Enabled       func(op Operation) bool
}

// InteractionStateMachine tracks one assist interaction:
// idle -> dispatched -> succeeded|failed, with closed reachable from anywhere.
type InteractionStateMachine struct {
	interpreter *statekit.Interpreter[InteractionContext]
}

func NewInteractionStateMachine(interactionID string, enabled func(Operation) bool) (*InteractionStateMachine, error) {
	if enabled == nil {
		enabled = func(Operation) bool { return true }
	}

	builder := statekit.NewMachine[InteractionContext]("assist-interaction").
		WithInitial(statekit.StateID(StateIdle)).
		WithContext(InteractionContext{
			InteractionID: interactionID,
			Enabled:       enabled,
		}).
		WithGuard("actionEnabled", func(ctx InteractionContext, e statekit.Event) bool {
			return ctx.Enabled(Operation(e.Type))
		})

	builder.State(StateIdle).
		On(eventGenerate).Target(StateDispatched).Guard("actionEnabled").
		On(eventSummarize).Target(StateDispatched).Guard("actionEnabled").
		On(eventEnhance).Target(StateDispatched).Guard("actionEnabled").
		On(eventProofread).Target(StateDispatched).Guard("actionEnabled").
		On(eventExtend).Target(StateDispatched).Guard("actionEnabled").
		On(EventClose).Target(StateClosed).
		Done()

	builder.State(StateDispatched).
		On(EventSucceed).Target(StateSucceeded).
		On(EventFail).Target(StateFailed).
		On(EventClose).Target(StateClosed).
		Done()

	builder.State(StateSucceeded).
		On(EventClose).Target(StateClosed).
		Done()

	builder.State(StateFailed).
		On(EventClose).Target(StateClosed).
		Done()

	builder.State(StateClosed).
		On(EventClose).Target(StateClosed).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build interaction machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &InteractionStateMachine{interpreter: interpreter}, nil
}

// Transition sends event and reports an error when the state did not move.
func (sm *InteractionStateMachine) Transition(event string) error {
	before := sm.Current()
	sm.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	if sm.Current() != before {
		return nil
	}
	if before == StateClosed && event == EventClose {
		return nil
	}
	return fmt.Errorf("event %q is not allowed in state %q", event, before)
}

func (sm *InteractionStateMachine) Current() string {
	return string(sm.interpreter.State().Value)
}

// Terminal reports whether the interaction has ended.
func (sm *InteractionStateMachine) Terminal() bool {
	switch sm.Current() {
	case StateSucceeded, StateFailed, StateClosed:
		return true
	}
	return false
}
