// Package apperr defines the error kinds that may cross a request boundary.
// Every failure surfaced by the search service or the HTTP layer is one of
// these kinds; anything else is wrapped before it leaves its origin.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers and transports.
type Kind int

const (
	KindUnknown Kind = iota
	// KindInvalidRequest: the caller omitted or malformed required filters.
	KindInvalidRequest
	// KindCentroidUnavailable: radius search without a known source centroid.
	KindCentroidUnavailable
	// KindTranslatorFailure: the completion call errored or timed out.
	KindTranslatorFailure
	// KindUnsafeQuery: the validator rejected a query.
	KindUnsafeQuery
	// KindQueryExecution: storage rejected or failed a validated query.
	KindQueryExecution
	// KindMalformedTranslatorOutput never reaches callers of the translator;
	// it is collapsed into a guidance outcome at decode time.
	KindMalformedTranslatorOutput
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid_request"
	case KindCentroidUnavailable:
		return "centroid_unavailable"
	case KindTranslatorFailure:
		return "translator_failure"
	case KindUnsafeQuery:
		return "unsafe_query"
	case KindQueryExecution:
		return "query_execution_error"
	case KindMalformedTranslatorOutput:
		return "malformed_translator_output"
	default:
		return "unknown"
	}
}

// HTTPStatus maps a kind to the status code used by the HTTP surface.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidRequest:
		return http.StatusBadRequest
	case KindCentroidUnavailable:
		return http.StatusServiceUnavailable
	case KindUnsafeQuery:
		return http.StatusUnprocessableEntity
	case KindTranslatorFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error carries a Kind, a human-readable message and an optional cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New returns an *Error of the given kind without a cause.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap returns an *Error of the given kind wrapping err.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain,
// or KindUnknown when there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
