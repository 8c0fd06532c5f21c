package check

import (
	"context"
	"errors"

	"quill/internal/diag"
	"quill/internal/source"
)

// Error is a recoverable checking failure carrying the diagnostic to attach
// to the failing declaration. Verifier-level operations return it instead of
// aborting; callers record it and substitute a placeholder.
type Error struct {
	Diag diag.Diagnostic
}

func (e *Error) Error() string {
	return e.Diag.Message
}

func newError(code diag.Code, span source.Span, msg string) *Error {
	return &Error{Diag: diag.Diagnostic{
		Severity: diag.SevError,
		Code:     code,
		Message:  msg,
		Primary:  span,
	}}
}

// AsDiagnostic converts any checking failure into a diagnostic attached at
// span. Failures that are not checking errors are programming defects and
// come back as internal diagnostics, distinct from user source errors.
func AsDiagnostic(err error, span source.Span) diag.Diagnostic {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Diag
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.IntInternal,
			Message:  "checking cancelled: " + err.Error(),
			Primary:  span,
		}
	}
	return diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.IntInternal,
		Message:  "internal checker defect: " + err.Error(),
		Primary:  span,
	}
}
