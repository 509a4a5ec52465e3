// Package apperr defines the error taxonomy shared by every component of
// the FRED MCP server. Handlers never return bare errors across a package
// boundary; they return *Error so the MCP layer can map a failure onto the
// right JSON-RPC error code without string-sniffing messages.
package apperr

import "fmt"

// Kind is one of the closed set of error categories from the server's
// error-handling design. It is a category, not a Go type.
type Kind string

const (
	ConfigMissing      Kind = "config_missing"
	InvalidRequest     Kind = "invalid_request"
	InvalidParams      Kind = "invalid_params"
	MethodNotFound     Kind = "method_not_found"
	NotFound           Kind = "not_found"
	UpstreamUnavailable Kind = "upstream_unavailable"
	RateLimited        Kind = "rate_limited"
	AuthMissing        Kind = "auth_missing"
	EmptyIntersection  Kind = "empty_intersection"
	DuplicateSeries    Kind = "duplicate_series"
	UnknownColumn      Kind = "unknown_column"
	IncompleteDataset  Kind = "incomplete_dataset"
	Cancelled          Kind = "cancelled"
	Internal           Kind = "internal"
)

// Error is the error type every component in this module returns.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// New builds an *Error with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that carries an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err carries the given Kind, unwrapping as needed.
func Is(err error, kind Kind) bool {
	var ae *Error
	for err != nil {
		if a, ok := err.(*Error); ok {
			ae = a
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return ae != nil && ae.Kind == kind
}

// KindOf extracts the Kind from err, defaulting to Internal when err is not
// (or does not wrap) an *Error.
func KindOf(err error) Kind {
	var ae *Error
	cur := err
	for cur != nil {
		if a, ok := cur.(*Error); ok {
			ae = a
			break
		}
		u, ok := cur.(interface{ Unwrap() error })
		if !ok {
			break
		}
		cur = u.Unwrap()
	}
	if ae == nil {
		return Internal
	}
	return ae.Kind
}
