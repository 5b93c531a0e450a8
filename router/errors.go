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

package router

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyPath indicates a route was registered without a path.
	ErrEmptyPath = errors.New("route path is empty")

	// ErrNilTarget indicates a route was registered without a target type.
	ErrNilTarget = errors.New("route target is nil")

	// ErrNoCapability indicates the target satisfies none of the known capabilities.
	ErrNoCapability = errors.New("route target has no known capability")

	// ErrFrozen indicates a route was registered after the dispatcher started resolving.
	ErrFrozen = errors.New("routes are frozen")

	// ErrNilFactory indicates a factory rule could not construct its factory.
	ErrNilFactory = errors.New("controller factory is nil")

	// ErrNilModule indicates a module rule could not construct its module.
	ErrNilModule = errors.New("route module is nil")

	// ErrNilLogger indicates a nil logger was passed to WithLogger.
	ErrNilLogger = errors.New("logger is nil")

	// ErrResolvePanicked is reported to recorders when a factory or module panicked.
	ErrResolvePanicked = errors.New("resolution panicked")

	// ErrNotHandler indicates a resolved controller cannot serve HTTP requests.
	ErrNotHandler = errors.New("controller does not implement http.Handler")
)

// ConfigError reports a route that could not be registered.
// It wraps one of the registration sentinels so callers can use [errors.Is].
type ConfigError struct {
	Path   string // Route path as given (may be empty)
	Target string // Target type name (may be empty)
	Err    error  // Underlying sentinel
	Detail string // Human-readable explanation
}

// Error returns a formatted error message with route context.
func (e *ConfigError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg = e.Detail
	}
	if e.Path == "" && e.Target == "" {
		return "route config: " + msg
	}
	return fmt.Sprintf("route config %q -> %s: %s", e.Path, e.Target, msg)
}

// Unwrap returns the underlying sentinel error.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// HTTPStatus reports configuration failures as server errors.
func (e *ConfigError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Code returns a machine-readable error code.
func (e *ConfigError) Code() string {
	return "route_config"
}

// NoRouteError is returned by [Dispatcher.ServeHTTP] formatting when no rule
// matched the request path.
type NoRouteError struct {
	Path string
}

// Error returns a formatted error message.
func (e *NoRouteError) Error() string {
	return fmt.Sprintf("no route matches %q", e.Path)
}

// HTTPStatus returns 404.
func (e *NoRouteError) HTTPStatus() int {
	return http.StatusNotFound
}

// Code returns a machine-readable error code.
func (e *NoRouteError) Code() string {
	return "route_not_found"
}

// notHandlerError wraps ErrNotHandler with the controller type.
type notHandlerError struct {
	controller string
}

func (e *notHandlerError) Error() string {
	return fmt.Sprintf("%v: %s", ErrNotHandler, e.controller)
}

func (e *notHandlerError) Unwrap() error {
	return ErrNotHandler
}

func (e *notHandlerError) HTTPStatus() int {
	return http.StatusNotImplemented
}
