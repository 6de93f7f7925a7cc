// Copyright (c) 2024, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errors provides a set of error functions that are helpful
// for dealing with errors in common situations, plus an [Error] type
// that optionally carries the call stack at which it was created.
// It re-exports the standard library errors functions so that it can
// be used as a drop-in replacement.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error represents an error with a base error and the call stack
// at which it was wrapped, if [Debug] is on.
type Error struct {
	Base  error
	Stack []string
}

// Wrap wraps the given error into an [*Error], recording the call
// stack when [Debug] is on. It returns nil if the given error is nil.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	e := &Error{Base: err}
	if Debug {
		e.Stack = CallerInfo()
	}
	return e
}

// New returns a new error with the given text, wrapped via [Wrap].
func New(text string) error {
	return Wrap(errors.New(text))
}

// Errorf returns a new error with the given format and arguments,
// wrapped via [Wrap]. It supports %w like [fmt.Errorf].
func Errorf(format string, a ...any) error {
	return Wrap(fmt.Errorf(format, a...))
}

// Error returns the base error message, followed by the stack
// in parentheses if there is one.
func (e *Error) Error() string {
	res := e.Base.Error()
	if len(e.Stack) > 0 {
		res += " (" + strings.Join(e.Stack, ": ") + ")"
	}
	return res
}

func (e *Error) String() string {
	return e.Error()
}

// Unwrap returns the underlying base error.
func (e *Error) Unwrap() error {
	return e.Base
}

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// As is [errors.As].
func As(err error, target any) bool { return errors.As(err, target) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// ErrUnsupported is [errors.ErrUnsupported].
var ErrUnsupported = errors.ErrUnsupported
