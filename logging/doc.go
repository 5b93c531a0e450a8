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

// Package logging builds the structured [slog.Logger] used by the dispatcher
// and its command.
//
// # Basic Usage
//
//	logger := logging.MustNew(logging.WithConsoleHandler())
//	logger.Info("dispatcher started", "addr", ":8080")
//
//	d := router.MustNew(
//	    router.WithLogger(logger.Logger()),
//	    router.WithDiagnostics(logging.Diagnostics(logger.Logger())),
//	)
//
// # Handlers
//
// JSON (default) is meant for log aggregation, text for key=value pipelines
// and console for development. Service name, version and environment, when
// configured, are added to every record.
//
// # Dynamic Log Levels
//
//	logger.SetLevel(logging.LevelDebug) // every resolution is logged
//	logger.SetLevel(logging.LevelWarn)  // only failures
//
// Levels can also be parsed from configuration with [ParseLevel].
//
// # Sensitive Data Redaction
//
// Attributes named password, token, secret, api_key or authorization are
// always redacted. Additional sanitization can be configured using
// [WithReplaceAttr].
//
// # Trace Correlation
//
// When a record is logged with a context that carries a valid OpenTelemetry
// span, trace_id and span_id are added to it. The dispatcher logs every
// resolution with the context returned by its recorders, so resolution log
// lines carry the span opened by the tracing package.
package logging
