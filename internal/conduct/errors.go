package conduct

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a session failure for the caller.
type Kind string

const (
	KindValidation Kind = "validation" // rejected locally or by the server as invalid input
	KindNetwork    Kind = "network"
	KindAPI        Kind = "api"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
)

// Error 会话操作错误；Message 可直接展示给用户
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ErrSessionClosed is returned for edits after Close or completion.
var ErrSessionClosed = &Error{Kind: KindConflict, Op: "edit", Message: "Inspection session is closed"}

func validationError(op, message string) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message}
}

// statusError is implemented by API client errors that carry an HTTP status.
type statusError interface {
	error
	HTTPStatus() int
}

// classify wraps an API failure; errors without an HTTP status are network failures.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}

	var se statusError
	if !errors.As(err, &se) {
		msg := "Network error, please check your connection and try again"
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			msg = "Request timed out, please try again"
		}
		return &Error{Kind: KindNetwork, Op: op, Message: msg, Err: err}
	}

	kind := KindAPI
	switch se.HTTPStatus() {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = KindValidation
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusConflict:
		kind = KindConflict
	}
	return &Error{Kind: kind, Op: op, Message: apiMessage(se), Err: err}
}

// apiMessage prefers the server's message over the client's formatted error.
func apiMessage(se statusError) string {
	if m, ok := se.(interface{ UserMessage() string }); ok && m.UserMessage() != "" {
		return m.UserMessage()
	}
	return se.Error()
}
