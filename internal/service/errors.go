package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalid marks errors caused by the request itself (HTTP 400).
	ErrInvalid = errors.New("invalid request")
	// ErrConflict marks requests that clash with the inspection's current state (HTTP 409).
	ErrConflict = errors.New("conflict")
	// ErrSummaryUnavailable 未配置 AI 总结（HTTP 503）
	ErrSummaryUnavailable = errors.New("summary generation is not configured")
)

// serviceError keeps the user-facing message while classifying through Unwrap.
type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func invalidf(format string, args ...any) error {
	return &serviceError{kind: ErrInvalid, msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &serviceError{kind: ErrConflict, msg: fmt.Sprintf(format, args...)}
}
