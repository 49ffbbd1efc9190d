package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrAccountNotFound = errors.New("account not found")
var ErrSameAccount = errors.New("destination account is the same as the source account")
var ErrInsufficientBalance = errors.New("insufficient balance")
var ErrReversalNotEligible = errors.New("transaction is not eligible for reversal")
var ErrOperationInFlight = errors.New("operation already in progress")
var ErrInvalidTransition = errors.New("invalid workflow transition")
var ErrWorkflowClosed = errors.New("workflow is closed")

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindInputValidation
	KindBusinessRule
	KindRemoteRejection
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindInputValidation:
		return "input_validation"
	case KindBusinessRule:
		return "business_rule"
	case KindRemoteRejection:
		return "remote_rejection"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// ValidationError is a user-correctable input problem. Messages are joined the
// same way request validation reports them: "field a is required; field b ...".
type ValidationError struct {
	Problems []string
	Err      error
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 && e.Err != nil {
		return e.Err.Error()
	}
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BusinessRuleError blocks a transition without any remote involvement.
type BusinessRuleError struct {
	Message string
	Err     error
}

func NewBusinessRuleError(err error, message string) *BusinessRuleError {
	return &BusinessRuleError{Message: message, Err: err}
}

func (e *BusinessRuleError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *BusinessRuleError) Unwrap() error { return e.Err }

// RemoteRejectionError is a well-formed refusal from the gateway. Code holds
// the standardized four-character reason when the message embeds one.
type RemoteRejectionError struct {
	Operation  string
	StatusCode int
	Code       string
	Message    string
}

func (e *RemoteRejectionError) Error() string {
	if e.Code != "" && !strings.Contains(e.Message, e.Code) {
		return fmt.Sprintf("%s rejected: %s (%s)", e.Operation, e.Message, e.Code)
	}
	return fmt.Sprintf("%s rejected: %s", e.Operation, e.Message)
}

// TransportError covers network failures, timeouts, 5xx answers and an open
// circuit breaker.
type TransportError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s failed with status %d: %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// KindOf classifies err into the engine's error taxonomy.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	var validationErr *ValidationError
	var businessErr *BusinessRuleError
	var rejectionErr *RemoteRejectionError
	var transportErr *TransportError

	switch {
	case errors.As(err, &transportErr):
		return KindTransport
	case errors.As(err, &rejectionErr):
		return KindRemoteRejection
	case errors.As(err, &businessErr):
		return KindBusinessRule
	case errors.As(err, &validationErr):
		return KindInputValidation
	case errors.Is(err, ErrAccountNotFound):
		return KindInputValidation
	case errors.Is(err, ErrSameAccount), errors.Is(err, ErrInsufficientBalance),
		errors.Is(err, ErrReversalNotEligible), errors.Is(err, ErrOperationInFlight),
		errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrWorkflowClosed):
		return KindBusinessRule
	default:
		return KindUnknown
	}
}
