package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind classifies an error for retry and propagation decisions.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation marks input rejected before persistence. Never retried.
	KindValidation
	// KindNotFound marks a reference to an absent record. Surfaced, not retried.
	KindNotFound
	// KindTransient marks an unreachable remote or failed request. The entity
	// stays pending and is retried on the next sync trigger.
	KindTransient
	// KindRemoteRejected marks a non-retryable remote refusal. Logged; the
	// entity stays pending indefinitely.
	KindRemoteRejected
	// KindEndpointGone marks a push endpoint that is permanently invalid.
	// Triggers subscription deletion, never a retry.
	KindEndpointGone
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindRemoteRejected:
		return "remote_rejected"
	case KindEndpointGone:
		return "endpoint_gone"
	}
	return "unknown"
}

// Error carries a kind, a message, an optional cause and a stack trace.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
	Stack   string `json:"stack,omitempty"`
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an unclassified error.
func New(message string) *Error {
	return &Error{Message: message, Stack: captureStack()}
}

// Errorf creates an unclassified formatted error.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// WithKind creates a classified error.
func WithKind(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Stack: captureStack()}
}

// WithKindf creates a classified formatted error.
func WithKindf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Stack: captureStack()}
}

// Wrap wraps an error with a message, preserving its kind.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Message: message, Err: err, Stack: captureStack()}
}

// Wrapf wraps an error with a formatted message, preserving its kind.
func Wrapf(err error, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Message: fmt.Sprintf(format, args...), Err: err, Stack: captureStack()}
}

// WrapKind wraps an error and reclassifies it.
func WrapKind(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err, Stack: captureStack()}
}

// KindOf walks the error chain and returns the first classified kind.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind != KindUnknown {
			return e.Kind
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}

// IsKind reports whether any error in the chain carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// Cause returns the innermost error in the chain.
func Cause(err error) error {
	for err != nil {
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
	return err
}

func captureStack() string {
	buf := make([]byte, 1024)
	n := runtime.Stack(buf, false)
	stack := string(buf[:n])

	// drop the captureStack/constructor frames at the top
	lines := strings.Split(stack, "\n")
	if len(lines) > 6 {
		stack = strings.Join(lines[6:], "\n")
	}
	return strings.TrimSpace(stack)
}

// Format implements fmt.Formatter.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s", e.Error())
			if e.Stack != "" {
				fmt.Fprintf(s, "\n%s", e.Stack)
			}
			return
		}
		fallthrough
	case 's':
		fmt.Fprintf(s, "%s", e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}
