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

// Package recovery turns panics in HTTP handlers into error responses.
//
// A recovered panic is logged with its stack, recorded on the active
// OpenTelemetry span, and answered with a 500 written through an error
// formatter (RFC 9457 problem details by default):
//
//	handler = recovery.New(
//	    recovery.WithLogger(logger),
//	    recovery.WithFormatter(errors.NewSimple()),
//	)(handler)
//
// Register it outside the handlers it protects. Panics with
// [http.ErrAbortHandler] are re-raised so net/http can abort the response.
//
// The span gets exception.type, exception.message and exception.escaped
// attributes.
package recovery
