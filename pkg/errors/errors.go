// Package errors defines the failure taxonomy shared by the HTTP layer and
// the assignment and valet engines. Engines classify failures with a Code;
// the API boundary maps the code to a status and a client-safe message.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code classifies a failure. The string values are part of the API contract;
// clients branch on them.
type Code string

const (
	// CodeValidation covers malformed request bodies, bad ids, and inputs
	// rejected by the engines before any write happens.
	CodeValidation Code = "VALIDATION_ERROR"
	// CodeUnauthorized is raised by the JWT middleware when no valid token
	// accompanies a private route.
	CodeUnauthorized Code = "UNAUTHORIZED"
	// CodeForbidden covers role gates and ownership checks, a driver
	// touching another driver's valet for example.
	CodeForbidden Code = "FORBIDDEN"
	CodeNotFound  Code = "NOT_FOUND"
	// CodeConflict marks resource contention: a driver already on service,
	// a second valet for the same order, a held loaner.
	CodeConflict Code = "CONFLICT"
	// CodeStateConflict marks a transition the assignment or valet state
	// machine does not allow from the current state.
	CodeStateConflict Code = "STATE_CONFLICT"
	// CodeIdempotency is raised when an Idempotency-Key is replayed with a
	// different request body.
	CodeIdempotency Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit   Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal    Code = "INTERNAL_ERROR"
	// CodeDependency wraps failures from Postgres, Redis, Pub/Sub, or the
	// payment gateway. These are the retryable ones.
	CodeDependency Code = "DEPENDENCY_ERROR"
)

// Metadata drives how a code surfaces at the HTTP boundary. DetailsAllowed
// guards which codes may leak structured details to clients.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
	},
	CodeUnauthorized: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeForbidden: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "access denied",
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeConflict: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "conflict detected",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:    http.StatusTooManyRequests,
		PublicMessage: "rate limit exceeded",
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal server error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

// MetadataFor resolves the boundary behavior for a code. Unknown codes fall
// back to the internal entry so nothing unclassified leaks details.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is the engine-facing error. The message is written for operators;
// whether it reaches the client is decided per code at the boundary.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

// New builds an Error with no underlying cause.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap classifies an underlying error. A nil cause degrades to New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured context, typically the offending field.
// The boundary drops it for codes whose metadata disallows details.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

// Meta resolves the boundary behavior for this error's code.
func (e *Error) Meta() Metadata {
	return MetadataFor(e.Code())
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the typed error from a chain, or nil when the chain holds none.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
