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
	"log/slog"

	rerrors "rivaas.dev/dispatch/errors"
)

// Option defines functional options for dispatcher configuration.
type Option func(*Dispatcher)

// WithDiagnostics sets a diagnostic handler for the dispatcher.
//
// Diagnostic events are optional informational events about registration
// and resolution (rules registered, modules loaded, frames retracted).
// The dispatcher functions correctly whether diagnostics are collected or not.
//
// Example with logging:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Debug(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	d := router.MustNew(router.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(d *Dispatcher) {
		d.diagnostics = handler
	}
}

// WithLogger sets the structured logger. Resolutions are logged at debug
// level and failures at error level.
// Default: a no-op logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithRecorder adds observability recorders. Recorders are notified in the
// order given.
//
// Example:
//
//	d := router.MustNew(
//	    router.WithRecorder(metricsRecorder, tracer),
//	)
func WithRecorder(recorders ...Recorder) Option {
	return func(d *Dispatcher) {
		for _, rec := range recorders {
			if rec != nil {
				d.recorders = append(d.recorders, rec)
			}
		}
	}
}

// WithErrorFormatter sets the formatter used by [Dispatcher.ServeHTTP] for
// unmatched paths and resolution failures.
// Default: RFC 9457 problem details.
func WithErrorFormatter(f rerrors.Formatter) Option {
	return func(d *Dispatcher) {
		d.formatter = f
	}
}
