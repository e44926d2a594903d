package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrNotFound      = errors.New("not found")
	ErrAmbiguous     = errors.New("ambiguous reference")
	ErrInvalidConfig = errors.New("invalid config")
	ErrBudget        = errors.New("pixel budget exceeded")
)

// ErrorKind is a coarse-grained categorization for errors.
type ErrorKind string

const (
	// KindNotFound: a catalog reference (model/LoRA/LUT), rule, or file matched nothing.
	KindNotFound ErrorKind = "not_found"
	// KindAmbiguous: a catalog reference matched more than one entry.
	KindAmbiguous ErrorKind = "ambiguous"
	// KindInvalidConfig: malformed rules file, flag value, or parameter.
	KindInvalidConfig ErrorKind = "invalid_config"
	// KindBudget: requested dimensions cannot satisfy the pixel budget.
	KindBudget ErrorKind = "budget"
	// KindTransport: network or server failure talking to a collaborator.
	KindTransport ErrorKind = "transport"
	// KindMetadata: the image itself saved but provenance embedding failed.
	KindMetadata ErrorKind = "metadata"
	// KindExecution: anything else that failed at runtime.
	KindExecution ErrorKind = "execution"
)

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op   string
	Kind ErrorKind
	Path string // Optional: relevant file path
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsKind helps callers classify errors without depending on infra packages.
func IsKind(err error, kind ErrorKind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

// Fatal reports whether an error should abort the whole invocation rather
// than just the current item. Reference and dimension resolution failures
// are unrecoverable; save and metadata failures are per-file.
func Fatal(err error) bool {
	var oe *OpError
	if !errors.As(err, &oe) {
		return true
	}
	switch oe.Kind {
	case KindMetadata, KindExecution:
		return false
	default:
		return true
	}
}
