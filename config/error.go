// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
)

var (
	// ErrNilSource indicates WithSource was given a nil source.
	ErrNilSource = errors.New("source cannot be nil")

	// ErrNilValidator indicates WithValidator was given a nil function.
	ErrNilValidator = errors.New("validator cannot be nil")

	// ErrInvalidBinding indicates the binding target is not a non-nil pointer to a struct.
	ErrInvalidBinding = errors.New("binding must be a non-nil pointer to a struct")

	// ErrEmptyTag indicates WithTag was given an empty tag name.
	ErrEmptyTag = errors.New("tag name cannot be empty")

	// ErrNilContext indicates Load was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrUnknownFormat indicates a file format could not be detected from its extension.
	ErrUnknownFormat = errors.New("cannot detect format from extension")
)

// Error is a configuration error with the source and operation that failed.
type Error struct {
	Source    string // e.g. "source[0]", "json-schema", "binding"
	Field     string // optional
	Operation string // e.g. "load", "merge", "validate", "bind"
	Err       error
}

// Error returns the message with its context.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("config error in %s.%s during %s: %v", e.Source, e.Field, e.Operation, e.Err)
	}
	return fmt.Sprintf("config error in %s during %s: %v", e.Source, e.Operation, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates an [Error].
func NewError(source, operation string, err error) *Error {
	return &Error{Source: source, Operation: operation, Err: err}
}

// NewFieldError creates an [Error] for a single field.
func NewFieldError(source, field, operation string, err error) *Error {
	return &Error{Source: source, Field: field, Operation: operation, Err: err}
}
