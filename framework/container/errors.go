package container

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrCycleDetected         = errors.New("import cycle detected")
	ErrConflict              = errors.New("definition conflict")
	ErrSelectorFailure       = errors.New("selector failed")
	ErrRegistrarFailure      = errors.New("registrar failed")
	ErrCancelled             = errors.New("resolution cancelled")
	ErrSelectorDepthExceeded = errors.New("selector chain too deep")
	ErrUnknownTarget         = errors.New("unknown import target")
	ErrDuplicateIdentity     = errors.New("identity already registered")
)

// CycleError reports an import chain that revisits one of its own ancestors,
// either a module or a selector still being expanded. Chain ends with the
// revisited identity.
type CycleError struct {
	Chain Chain
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("import cycle detected: %s", e.Chain)
}

func (e *CycleError) Unwrap() error { return ErrCycleDetected }

// ConflictError is returned under the strict policy when two definitions
// share a name.
type ConflictError struct {
	Name     string
	Existing Definition
	Incoming Definition
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("definition %q from %s [%s] conflicts with %s [%s]",
		e.Name, e.Incoming.Source, e.Incoming.Origin, e.Existing.Source, e.Existing.Origin)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PluginError wraps a failure raised by a Selector or Registrar.
type PluginError struct {
	Kind  DeclKind
	ID    string
	Chain Chain
	Err   error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("%s %q at [%s]: %v", e.Kind, e.ID, e.Chain, e.Err)
}

// Unwrap exposes both the classifying sentinel and the plugin's own error.
func (e *PluginError) Unwrap() []error {
	sentinel := ErrSelectorFailure
	if e.Kind == RegistrarRef {
		sentinel = ErrRegistrarFailure
	}
	return []error{sentinel, e.Err}
}

// FailureKind maps a resolution error to a short, stable label used in logs
// and metrics. A nil error yields "ok".
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, ErrCycleDetected):
		return "cycle"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrSelectorDepthExceeded):
		return "selector_depth"
	case errors.Is(err, ErrSelectorFailure):
		return "selector"
	case errors.Is(err, ErrRegistrarFailure):
		return "registrar"
	case errors.Is(err, ErrUnknownTarget):
		return "unknown_target"
	}
	return "internal"
}
