// Package apperr classifies domain failures so transport handlers can map
// them to responses without inspecting package-specific sentinel errors.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindStateConflict Kind = "state_conflict"
	KindBusinessRule  Kind = "business_rule"
	KindTransient     Kind = "transient_conflict"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func Validation(code, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

func NotFound(code, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: fmt.Sprintf(format, args...)}
}

func StateConflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func BusinessRule(code, format string, args ...any) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: fmt.Sprintf(format, args...)}
}

func Transient(code, format string, args ...any) *Error {
	return &Error{Kind: KindTransient, Code: code, Message: fmt.Sprintf(format, args...)}
}

// As unwraps err into an *Error, mirroring errors.As.
func As(err error, target **Error) bool {
	return errors.As(err, target)
}

// KindOf returns the classification of err, or "" for unclassified errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// CodeOf returns the machine code of err, or fallback for unclassified errors.
func CodeOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}
	return fallback
}
