package ai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
)

// FallbackProvider replaces network, server and protocol failures of the
// inner provider with locally synthesized text. It is opt-in: wire it only
// when placeholders are wanted, otherwise failures reach the caller as-is.
type FallbackProvider struct {
	inner  ai.Provider
	logger *slog.Logger
}

func NewFallbackProvider(inner ai.Provider, logger *slog.Logger) *FallbackProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackProvider{inner: inner, logger: logger}
}

func (p *FallbackProvider) ID() string {
	return p.inner.ID() + "+fallback"
}

func (p *FallbackProvider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.CompletionResponse, error) {
	resp, err := p.inner.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	kind := ai.KindOf(err)
	if !kind.Remote() {
		return nil, err
	}

	p.logger.Warn("completion replaced by fallback text",
		"source", string(ai.SourceFallback),
		"request_id", req.ID,
		"operation", string(req.Operation),
		"kind", kind.String(),
		"error", err,
	)
	return &ai.CompletionResponse{
		Text:   Placeholder(req),
		Model:  "local",
		Source: ai.SourceFallback,
	}, nil
}

var sentenceEnd = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

// Placeholder synthesizes operation-appropriate text without a network call.
func Placeholder(req ai.CompletionRequest) string {
	switch req.Operation {
	case ai.OpSummarize:
		return summarySkeleton(req.UserPrompt)
	case ai.OpEnhance:
		return "Enhancement is unavailable right now, so your note was kept as written.\n\n" +
			strings.TrimSpace(req.UserPrompt)
	case ai.OpProofread:
		return "Proofreading is unavailable right now. No corrections were applied.\n\n" +
			strings.TrimSpace(req.UserPrompt)
	case ai.OpExtend:
		return "Continuing this note: expand on the last point above with an example, " +
			"the next step you plan to take, and any open questions worth revisiting."
	default:
		return fmt.Sprintf("# Draft\n\nHere is a starting point for \"%s\".\n\n"+
			"- Outline the main idea in one sentence.\n"+
			"- Add two or three supporting details.\n"+
			"- Close with a next step.", strings.TrimSpace(req.UserPrompt))
	}
}

func summarySkeleton(note string) string {
	var b strings.Builder
	b.WriteString("## Summary\n")

	points := 0
	for _, s := range sentenceEnd.FindAllString(note, -1) {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		b.WriteString("\n- ")
		b.WriteString(s)
		points++
		if points == 3 {
			break
		}
	}
	if points == 0 {
		b.WriteString("\n- Key points will appear here once a summary can be generated.")
	}
	return b.String()
}
