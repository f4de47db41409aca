package cli

import (
	"errors"
	"fmt"

	"github.com/felixgeelhaar/notewise/pkg/application"
	"github.com/felixgeelhaar/notewise/pkg/domain/ai"
	"github.com/felixgeelhaar/notewise/pkg/storage"
)

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

// MapError converts known domain errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	var f *ai.Failure
	if errors.As(err, &f) {
		switch f.Kind {
		case ai.KindValidation:
			e := NewCLIError(f.Message, validationHint(f.Message), nil)
			e.ExitCode = 2
			return e
		case ai.KindServer:
			return NewCLIError(
				fmt.Sprintf("completion service returned HTTP %d", f.StatusCode),
				"Check model_id and the credential, or retry with --fallback",
				err,
			)
		case ai.KindProtocol:
			return NewCLIError("completion service returned no text", "Retry, or use --fallback for placeholder text", err)
		case ai.KindNetwork:
			return NewCLIError("completion service unreachable", "Check base_url in .notewise/assist.yaml or NOTEWISE_BASE_URL", err)
		}
	}

	switch {
	case errors.Is(err, storage.ErrNoteNotFound):
		return NewCLIError("note not found", "Pass a path relative to the workspace root with --file", err)
	case errors.Is(err, application.ErrInFlight), errors.Is(err, application.ErrInteractionClosed):
		return NewCLIError("assist request interrupted", "Run the command again", err)
	}

	return err
}

func validationHint(msg string) string {
	switch msg {
	case ai.MsgEnterPrompt:
		return "Pass --prompt with the text to generate"
	case ai.MsgSummarizeWords:
		return "Summaries need a note of at least 100 words"
	case ai.MsgNoteEmpty:
		return "Write something in the note first, or use 'notewise generate'"
	}
	return ""
}
