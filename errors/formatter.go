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

package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnknownFormat indicates [ForName] was given an unsupported format name.
var ErrUnknownFormat = errors.New("unknown error format")

// Formatter defines how errors are formatted in HTTP responses.
//
// Example:
//
//	formatter := errors.NewRFC9457("https://example.com/problems")
//	response := formatter.Format(req, err)
//	_ = errors.Write(w, response)
type Formatter interface {
	// Format converts an error into HTTP response components.
	// req is used for the instance URI where the format has one.
	Format(req *http.Request, err error) Response
}

// Response represents a formatted error response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, marshaled to JSON by [Write].
	Body any

	// Headers contains additional headers to set (optional).
	Headers http.Header
}

// ErrorType allows errors to declare their own HTTP status code.
//
// Example:
//
//	type NoRouteError struct{ Path string }
//
//	func (e *NoRouteError) Error() string   { return "no route matches " + e.Path }
//	func (e *NoRouteError) HTTPStatus() int { return http.StatusNotFound }
type ErrorType interface {
	error
	// HTTPStatus returns the HTTP status code for this error.
	HTTPStatus() int
}

// ErrorDetails allows errors to provide additional structured information.
type ErrorDetails interface {
	error
	// Details returns structured information about the error.
	Details() any
}

// ErrorCode allows errors to provide a machine-readable code.
type ErrorCode interface {
	error
	// Code returns a machine-readable error code.
	Code() string
}

// NewRFC9457 creates a new RFC9457 formatter.
// baseURL is prepended to error codes to build problem type URIs.
func NewRFC9457(baseURL string) *RFC9457 {
	return &RFC9457{
		BaseURL: baseURL,
	}
}

// NewSimple creates a new Simple formatter.
func NewSimple() *Simple {
	return &Simple{}
}

// ForName returns the formatter registered under name: "rfc9457" (also
// "problem") or "simple". Names are case-insensitive; the empty name
// selects RFC 9457. baseURL is only used by RFC 9457.
func ForName(name, baseURL string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "rfc9457", "problem":
		return NewRFC9457(baseURL), nil
	case "simple":
		return NewSimple(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Write writes resp to w: headers, then status, then the JSON body.
func Write(w http.ResponseWriter, resp Response) error {
	for k, v := range resp.Headers {
		for _, val := range v {
			w.Header().Add(k, val)
		}
	}
	if resp.ContentType != "" {
		w.Header().Set("Content-Type", resp.ContentType)
	}
	w.WriteHeader(resp.Status)

	if resp.Body == nil {
		return nil
	}
	if err := json.NewEncoder(w).Encode(resp.Body); err != nil {
		return fmt.Errorf("encode error response: %w", err)
	}
	return nil
}

// WithStatus wraps an error with an explicit HTTP status code.
// The wrapped error implements ErrorType interface.
// If err is nil, the status text for the given status code is used as the error message.
//
// Example:
//
//	return nil, errors.WithStatus(err, http.StatusServiceUnavailable)
func WithStatus(err error, status int) error {
	return &statusError{err: err, status: status}
}

// statusError wraps an error with an explicit status code.
type statusError struct {
	err    error
	status int
}

func (e *statusError) Error() string {
	if e.err == nil {
		return http.StatusText(e.status)
	}
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

func (e *statusError) HTTPStatus() int {
	return e.status
}

// statusOf returns the status declared by err, or 500.
func statusOf(err error, resolver func(error) int) int {
	if resolver != nil {
		return resolver(err)
	}
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}
