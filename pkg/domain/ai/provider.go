package ai

import (
	"context"
	"strings"
)

// Operation is a user-triggered assist action.
type Operation string

const (
	OpGenerate  Operation = "generate"
	OpSummarize Operation = "summarize"
	OpEnhance   Operation = "enhance"
	OpProofread Operation = "proofread"
	OpExtend    Operation = "extend"
)

// Operations lists every assist action in dialog order.
func Operations() []Operation {
	return []Operation{OpGenerate, OpSummarize, OpEnhance, OpProofread, OpExtend}
}

// ParseOperation maps a user-supplied name to an Operation.
func ParseOperation(name string) (Operation, bool) {
	switch op := Operation(strings.ToLower(strings.TrimSpace(name))); op {
	case OpGenerate, OpSummarize, OpEnhance, OpProofread, OpExtend:
		return op, true
	case "prompt":
		return OpGenerate, true
	}
	return "", false
}

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// ChatMessage is one entry of the ordered wire conversation.
type ChatMessage struct {
	Role    Role
	Content string
}

// CompletionRequest is built once per user action and consumed exactly once.
type CompletionRequest struct {
	ID               string
	Operation        Operation
	SystemPrompt     string
	UserPrompt       string
	AssistantContent string
	MaxTokens        int
}

// Messages returns system, optional assistant, then user.
// The assistant message is included only when AssistantContent is not blank.
func (r CompletionRequest) Messages() []ChatMessage {
	msgs := make([]ChatMessage, 0, 3)
	msgs = append(msgs, ChatMessage{Role: RoleSystem, Content: r.SystemPrompt})
	if strings.TrimSpace(r.AssistantContent) != "" {
		msgs = append(msgs, ChatMessage{Role: RoleAssistant, Content: r.AssistantContent})
	}
	msgs = append(msgs, ChatMessage{Role: RoleUser, Content: r.UserPrompt})
	return msgs
}

// Validate checks the request invariants.
func (r CompletionRequest) Validate() error {
	if strings.TrimSpace(r.SystemPrompt) == "" {
		return NewValidationError("system prompt is required")
	}
	if r.Operation == OpGenerate && strings.TrimSpace(r.UserPrompt) == "" {
		return NewValidationError(MsgEnterPrompt)
	}
	if r.MaxTokens <= 0 {
		return NewValidationError("max tokens must be greater than 0")
	}
	return nil
}

// Source records where successful text came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// CompletionResponse is the generated text for one request.
type CompletionResponse struct {
	Text   string
	Model  string
	Source Source
}

// Provider is the interface for completion backends.
type Provider interface {
	ID() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// Result is the single outcome delivered to a host: either Text or Err is set.
type Result struct {
	Operation Operation
	Text      string
	Source    Source
	Err       error
}

// Success builds a successful Result.
func Success(op Operation, text string, source Source) Result {
	if source == "" {
		source = SourceRemote
	}
	return Result{Operation: op, Text: text, Source: source}
}

// Failed builds a failed Result.
func Failed(op Operation, err error) Result {
	return Result{Operation: op, Err: err}
}

// OK reports whether the result is the success variant.
func (r Result) OK() bool { return r.Err == nil }

// Kind returns the failure kind, or zero for successes.
func (r Result) Kind() FailureKind { return KindOf(r.Err) }
