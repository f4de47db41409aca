package ai

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxTokens is the completion budget used when none is configured.
const DefaultMaxTokens = 8192

// User-facing validation messages.
const (
	MsgEnterPrompt     = "Enter a prompt"
	MsgSummarizeWords  = "Add at least 100 words to summarize"
	MsgNoteEmpty       = "Note is empty"
	MsgUnknownAction   = "Unknown action"
	MinSummarizeWords  = 100
	extendInstruction  = "Continue the note above from where it stops."
	generateTaskLegacy = "generate-title"
)

type template struct {
	system string
	task   string
}

var templates = map[Operation]template{
	OpGenerate: {
		system: "You are a writing assistant inside a notes app. Write clear, well-structured text for the user's request. " +
			"Use short paragraphs, and Markdown headings or bullet lists only where they help. Reply with the text only.",
		task: generateTaskLegacy,
	},
	OpSummarize: {
		system: "You summarize notes. Produce a concise summary that keeps every key fact, decision and action item. " +
			"Start with a one-sentence overview followed by bullet points. Reply with the summary only.",
		task: "summarize",
	},
	OpEnhance: {
		system: "You improve notes. Rewrite the note for clarity, structure and flow while keeping its meaning, facts and voice. " +
			"Reply with the improved note only.",
		task: "enhance",
	},
	OpProofread: {
		system: "You proofread notes. Fix spelling, grammar and punctuation without changing meaning, tone or structure. " +
			"Reply with the corrected note only.",
		task: "proofread",
	},
	OpExtend: {
		system: "You extend notes. Continue the note in the same voice and format, adding one or two paragraphs of relevant detail. " +
			"Reply with the new text only.",
		task: "extend",
	},
}

// Task returns the wire task tag of an operation.
func (o Operation) Task() string {
	if t, ok := templates[o]; ok {
		return t.task
	}
	return string(o)
}

// SystemPrompt returns the fixed system prompt of an operation.
func (o Operation) SystemPrompt() string {
	return templates[o].system
}

// NewRequest builds the CompletionRequest for op over the note body.
// prompt is only used by OpGenerate, which sends the note as assistant context.
func NewRequest(op Operation, note, prompt string, maxTokens int) (CompletionRequest, error) {
	if _, ok := templates[op]; !ok {
		return CompletionRequest{}, NewValidationError(fmt.Sprintf("%s: %q", MsgUnknownAction, op))
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	req := CompletionRequest{
		ID:           uuid.NewString(),
		Operation:    op,
		SystemPrompt: op.SystemPrompt(),
		MaxTokens:    maxTokens,
	}

	switch op {
	case OpGenerate:
		req.UserPrompt = strings.TrimSpace(prompt)
		req.AssistantContent = note
	case OpExtend:
		req.AssistantContent = note
		req.UserPrompt = extendInstruction
	default:
		req.UserPrompt = note
	}

	if err := req.Validate(); err != nil {
		return CompletionRequest{}, err
	}
	return req, nil
}
