package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a ClientError for the request boundary.
type Kind uint8

const (
	Invalid Kind = iota + 1
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "Invalid"
	case NotFound:
		return "NotFound"
	case Conflict:
		return "Conflict"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ClientError means the request itself is at fault. Reason is safe to show.
type ClientError struct {
	Kind   Kind
	Reason string
}

func (e *ClientError) Error() string { return e.Reason }

func NewInvalid(reason string) error { return &ClientError{Kind: Invalid, Reason: reason} }

func NewNotFound(reason string) error { return &ClientError{Kind: NotFound, Reason: reason} }

func NewConflict(reason string) error { return &ClientError{Kind: Conflict, Reason: reason} }

// ServerError wraps a storage or internal failure. Nothing of it reaches callers.
type ServerError struct {
	Op  string
	Err error
}

func (e *ServerError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

func NewServerError(op string, err error) error {
	return &ServerError{Op: op, Err: err}
}

// ErrSlugInUse is returned when a live row already owns the shortlink.
var ErrSlugInUse = &ClientError{Kind: Conflict, Reason: "Short URL is already in use!"}

// IsClientError reports whether err carries a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// KindOf returns the ClientError kind of err, or 0 when err is not a client error.
func KindOf(err error) Kind {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

// ClientReason returns the reason of a ClientError, or "" for anything else.
func ClientReason(err error) string {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ""
}
