// Package errors defines the coded errors returned across ffs.
//
// Every failure the loader reports carries a [Code] naming its category,
// so callers can branch on the kind of failure without matching strings:
//
//	if errors.Is(err, errors.ErrCodeComponentNotFound) {
//		return nil // unknown components are skipped
//	}
//
// Codes survive wrapping by fmt.Errorf and by [Wrap], and [Is] looks past
// outer coded errors: a NETWORK_ERROR inside a RESOURCE_LOAD matches both.
package errors

import (
	"errors"
	"fmt"
)

// Code names a failure category.
type Code string

const (
	ErrCodeInvalidInput        Code = "INVALID_INPUT"
	ErrCodeInvalidRegistration Code = "INVALID_REGISTRATION"
	ErrCodeInvalidTheme        Code = "INVALID_THEME"
	ErrCodeInvalidManifest     Code = "INVALID_MANIFEST"
	ErrCodeInvalidPath         Code = "INVALID_PATH"
	ErrCodeInvalidConfig       Code = "INVALID_CONFIG"

	ErrCodeNotFound          Code = "NOT_FOUND"
	ErrCodeComponentNotFound Code = "COMPONENT_NOT_FOUND"

	// RESOURCE_LOAD covers stylesheets and scripts, THEME_FETCH the theme
	// variable documents.
	ErrCodeResourceLoad Code = "RESOURCE_LOAD"
	ErrCodeThemeFetch   Code = "THEME_FETCH"
	ErrCodeNetwork      Code = "NETWORK_ERROR"

	// DUPLICATE_INIT is returned when bootstrap runs twice; NOT_READY when a
	// subsystem is used before bootstrap installed it.
	ErrCodeDuplicateInit Code = "DUPLICATE_INIT"
	ErrCodeNotReady      Code = "NOT_READY"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a failure with a code, a message for people and an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is makes a bare code usable as an errors.Is target:
// errors.Is(err, &Error{Code: ErrCodeNotReady}) matches on the code alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Message == "" && t.Cause == nil && t.Code == e.Code
}

// New returns an error with the given code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is New with a cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// Is reports whether any error in err's chain carries code.
func Is(err error, code Code) bool {
	return err != nil && errors.Is(err, &Error{Code: code})
}

// GetCode returns the code of the outermost coded error in err's chain, or
// "" when there is none.
func GetCode(err error) Code {
	if e := asError(err); e != nil {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without code prefix or cause, falling
// back to err.Error() for uncoded errors.
func UserMessage(err error) string {
	if e := asError(err); e != nil {
		return e.Message
	}
	return err.Error()
}

func asError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
