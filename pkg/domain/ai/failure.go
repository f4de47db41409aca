package ai

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a completion did not produce text.
type FailureKind int

const (
	KindValidation FailureKind = iota + 1
	KindNetwork
	KindServer
	KindProtocol
)

func (k FailureKind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNetwork:
		return "network_error"
	case KindServer:
		return "server_error"
	case KindProtocol:
		return "protocol_error"
	default:
		return "unknown"
	}
}

// Remote reports whether the kind comes from a network exchange.
func (k FailureKind) Remote() bool {
	return k == KindNetwork || k == KindServer || k == KindProtocol
}

// ErrNoChoices is wrapped by protocol failures when the payload has no usable text.
var ErrNoChoices = errors.New("no choices in response")

// Failure is the error type for every failed completion.
type Failure struct {
	Kind       FailureKind
	Message    string
	StatusCode int
	Err        error
}

func (f *Failure) Error() string {
	if f == nil {
		return "<nil>"
	}
	msg := f.Message
	if f.Kind == KindServer && f.StatusCode != 0 {
		msg = fmt.Sprintf("HTTP %d", f.StatusCode)
		if f.Message != "" {
			msg += ": " + f.Message
		}
	}
	if f.Err != nil && f.Kind != KindProtocol {
		if msg == "" {
			return fmt.Sprintf("%s: %v", f.Kind, f.Err)
		}
		return fmt.Sprintf("%s: %s: %v", f.Kind, msg, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Kind, msg)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is match failures by kind against a template Failure.
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok || t == nil || f == nil {
		return false
	}
	return t.Kind == f.Kind && t.Message == "" && t.StatusCode == 0 && t.Err == nil
}

// Kind templates usable with errors.Is.
var (
	ErrValidation = &Failure{Kind: KindValidation}
	ErrNetwork    = &Failure{Kind: KindNetwork}
	ErrServer     = &Failure{Kind: KindServer}
	ErrProtocol   = &Failure{Kind: KindProtocol}
)

func NewValidationError(message string) *Failure {
	return &Failure{Kind: KindValidation, Message: message}
}

func NewNetworkError(err error) *Failure {
	return &Failure{Kind: KindNetwork, Err: err}
}

func NewServerError(status int, body string) *Failure {
	return &Failure{Kind: KindServer, StatusCode: status, Message: body}
}

func NewProtocolError(cause error) *Failure {
	if cause == nil {
		cause = ErrNoChoices
	}
	return &Failure{Kind: KindProtocol, Message: ErrNoChoices.Error(), Err: cause}
}

// KindOf extracts the FailureKind from err, or zero when err is not a Failure.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// IsKind reports whether err is a Failure of kind k.
func IsKind(err error, k FailureKind) bool {
	return err != nil && KindOf(err) == k
}
