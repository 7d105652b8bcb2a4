package models

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Callers test them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
)

// DomainError carries an error kind plus, for conflicts, the titles of the
// records the user has to deal with first.
type DomainError struct {
	Kind     error
	Msg      string
	Blocking []string
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *DomainError) Unwrap() error { return e.Kind }

func Validationf(format string, args ...any) error {
	return &DomainError{Kind: ErrValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &DomainError{Kind: ErrNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) error {
	return &DomainError{Kind: ErrForbidden, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &DomainError{Kind: ErrConflict, Msg: fmt.Sprintf(format, args...)}
}

// BlockedBy builds a conflict that lists the blocking records by title.
func BlockedBy(msg string, titles []string) error {
	return &DomainError{Kind: ErrConflict, Msg: msg, Blocking: titles}
}

// BlockingOf extracts the blocking titles from err, if any.
func BlockingOf(err error) []string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Blocking
	}
	return nil
}
