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

// DiagnosticEvent represents an informational event from the dispatcher.
// These events are optional and can be collected for monitoring or debugging.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// Configuration diagnostics
	DiagRuleRegistered DiagnosticKind = "rule_registered"
	DiagRoutesFrozen   DiagnosticKind = "routes_frozen"

	// Resolution diagnostics
	DiagModuleLoaded   DiagnosticKind = "module_loaded"
	DiagFrameRetracted DiagnosticKind = "frame_retracted"
)

// DiagnosticHandler receives diagnostic events from the dispatcher.
// Implementations must be safe for concurrent use; resolution events are
// delivered from request goroutines.
//
// Example:
//
//	handler := router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
//	    slog.Debug(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	d := router.MustNew(router.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

// OnDiagnostic implements DiagnosticHandler.
func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}
