package cli

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/felixgeelhaar/notewise/pkg/application"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantHint string
		wantCode int
		wantCLI  bool
	}{
		{
			name: "nil returns nil",
			err:  nil,
		},
		{
			name:     "blank prompt",
			err:      ai.NewValidationError(ai.MsgEnterPrompt),
			wantMsg:  ai.MsgEnterPrompt,
			wantHint: "Pass --prompt with the text to generate",
			wantCode: 2,
			wantCLI:  true,
		},
		{
			name:     "short note",
			err:      ai.NewValidationError(ai.MsgSummarizeWords),
			wantMsg:  ai.MsgSummarizeWords,
			wantHint: "Summaries need a note of at least 100 words",
			wantCode: 2,
			wantCLI:  true,
		},
		{
			name:     "server failure",
			err:      ai.NewServerError(502, "bad gateway"),
			wantMsg:  "completion service returned HTTP 502",
			wantHint: "Check model_id and the credential, or retry with --fallback",
			wantCode: 1,
			wantCLI:  true,
		},
		{
			name:     "network failure",
			err:      fmt.Errorf("run: %w", ai.NewNetworkError(context.DeadlineExceeded)),
			wantMsg:  "completion service unreachable",
			wantHint: "Check base_url in .notewise/assist.yaml or NOTEWISE_BASE_URL",
			wantCode: 1,
			wantCLI:  true,
		},
		{
			name:     "protocol failure",
			err:      ai.NewProtocolError(ai.ErrNoChoices),
			wantMsg:  "completion service returned no text",
			wantCode: 1,
			wantCLI:  true,
		},
		{
			name:     "missing note",
			err:      fmt.Errorf("%w: a.md", storage.ErrNoteNotFound),
			wantMsg:  "note not found",
			wantCode: 1,
			wantCLI:  true,
		},
		{
			name:     "in flight",
			err:      application.ErrInFlight,
			wantMsg:  "assist request interrupted",
			wantCode: 1,
			wantCLI:  true,
		},
		{
			name: "unknown error passes through",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if tt.err == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			var cliErr *CLIError
			isCLI := errors.As(got, &cliErr)
			if isCLI != tt.wantCLI {
				t.Fatalf("CLIError = %v, want %v (%v)", isCLI, tt.wantCLI, got)
			}
			if !tt.wantCLI {
				if got != tt.err {
					t.Errorf("expected error to pass through unchanged")
				}
				return
			}
			if cliErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", cliErr.Message, tt.wantMsg)
			}
			if tt.wantHint != "" && cliErr.Hint != tt.wantHint {
				t.Errorf("hint = %q, want %q", cliErr.Hint, tt.wantHint)
			}
			if cliErr.ExitCode != tt.wantCode {
				t.Errorf("exit code = %d, want %d", cliErr.ExitCode, tt.wantCode)
			}
		})
	}
}

func TestMapError_KeepsCLIError(t *testing.T) {
	orig := NewCLIError("already mapped", "hint", nil)
	if got := MapError(orig); got != error(orig) {
		t.Errorf("expected the same CLIError back, got %v", got)
	}
}
