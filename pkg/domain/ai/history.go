package ai

import "time"

// InteractionRecord summarizes one dispatched interaction for history.
// It carries no note or generated text.
type InteractionRecord struct {
	Operation Operation
	Provider  string
	Source    Source
	Kind      FailureKind
	Duration  time.Duration
}

// InteractionRecorder persists interaction summaries.
type InteractionRecorder interface {
	RecordInteraction(rec InteractionRecord) error
}
