package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, machine-readable kind of a failure. Clients switch on it.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeInvalidOrExpired    Code = "INVALID_OR_EXPIRED_CODE"
	CodeEmailMismatch       Code = "EMAIL_MISMATCH"
	CodeForbidden           Code = "FORBIDDEN"
	CodeNotFound            Code = "NOT_FOUND"
	CodeConflict            Code = "CONFLICT"
	CodeStateConflict       Code = "STATE_CONFLICT"
	CodeProcedureNotStarted Code = "PROCEDURE_NOT_STARTED"
	CodeIncompletePhotos    Code = "INCOMPLETE_PHOTOS"
	CodeInvalidImage        Code = "INVALID_IMAGE"
	CodeAlreadyPaid         Code = "ALREADY_PAID"
	CodeNotReady            Code = "NOT_READY"
	CodeDeliveryFailed      Code = "DELIVERY_FAILED"
	CodeIdempotency         Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit           Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal            Code = "INTERNAL_ERROR"
	CodeDependency          Code = "DEPENDENCY_ERROR"
)

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
	CodeUnauthenticated: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "authentication required",
	},
	CodeInvalidOrExpired: {
		HTTPStatus:    http.StatusUnauthorized,
		PublicMessage: "invalid or expired code",
	},
	CodeEmailMismatch: {
		HTTPStatus:    http.StatusForbidden,
		PublicMessage: "email does not match this estimation",
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
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeProcedureNotStarted: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "sale procedure not started",
	},
	CodeIncompletePhotos: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "interior and exterior photos are required",
		DetailsAllowed: true,
	},
	CodeInvalidImage: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "invalid image",
		DetailsAllowed: true,
	},
	CodeAlreadyPaid: {
		HTTPStatus:    http.StatusConflict,
		PublicMessage: "fees already paid",
	},
	CodeNotReady: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "operation not available yet",
		DetailsAllowed: true,
	},
	CodeDeliveryFailed: {
		HTTPStatus:    http.StatusBadGateway,
		Retryable:     true,
		PublicMessage: "email delivery failed",
	},
	CodeIdempotency: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "idempotency key reused",
		DetailsAllowed: true,
	},
	CodeRateLimit: {
		HTTPStatus:     http.StatusTooManyRequests,
		Retryable:      true,
		PublicMessage:  "rate limit exceeded",
		DetailsAllowed: true,
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

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Internal wraps a store or runtime failure that the caller cannot act on.
func Internal(err error, message string) *Error {
	return Wrap(CodeInternal, err, message)
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

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

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

// CodeOf returns the code carried by err, or CodeInternal for untyped errors.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.Code()
	}
	return CodeInternal
}

func IsCode(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}
