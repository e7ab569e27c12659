package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorKind is the closed taxonomy of error categories the core
// distinguishes. Stages branch on Kind, never on string matching.
type ErrorKind string

const (
	KindInputInvalid           ErrorKind = "input_invalid"
	KindStageInputMissing      ErrorKind = "stage_input_missing"
	KindStageOutputMissing     ErrorKind = "stage_output_missing"
	KindRepositoryUnavailable  ErrorKind = "repository_unavailable"
	KindExternalContractBroken ErrorKind = "external_contract_violation"
	KindPolicyDenied           ErrorKind = "policy_denied"
	KindCancelled              ErrorKind = "cancelled"
	KindTamperDetected         ErrorKind = "tamper_detected"
)

// CoreError attaches a Kind to an underlying error so callers can decide
// propagation policy (programming errors propagate, repository errors are
// contained locally) without parsing strings.
type CoreError struct {
	Kind ErrorKind
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err.Error())
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// New builds a CoreError of the given kind wrapping cause.
func New(kind ErrorKind, cause error) *CoreError {
	return &CoreError{Kind: kind, Err: cause}
}

// Is reports whether err (or anything it wraps) is a CoreError of kind.
func Is(err error, kind ErrorKind) bool {
	var ce *CoreError
	if stderrors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// KindOf extracts the ErrorKind of err, or "" if err is not a CoreError.
func KindOf(err error) ErrorKind {
	var ce *CoreError
	if stderrors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
