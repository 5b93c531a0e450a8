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

// Package tracing records OpenTelemetry spans for dispatcher resolutions
// and the HTTP requests that trigger them.
//
// A [Tracer] implements [router.Recorder]. Every resolution gets a
// "dispatch.resolve" span carrying the path, the outcome, the rule that
// produced the controller and the frame counts. [Middleware] adds a server
// span per request and extracts W3C trace context from the incoming
// headers, so resolution spans nest under the request span.
//
// # Basic Usage
//
//	tracer := tracing.MustNew(
//	    tracing.WithServiceName("dispatchd"),
//	    tracing.WithStdout(),
//	)
//	defer tracer.Shutdown(context.Background())
//
//	d := router.MustNew(router.WithRecorder(tracer))
//	http.ListenAndServe(":8080", tracing.Middleware(tracer)(d))
//
// # Providers
//
//   - [NoopProvider] (default): spans are created but not exported
//   - [StdoutProvider]: pretty-printed spans on stdout
//   - [OTLPProvider]: OTLP gRPC, connected by [Tracer.Start]
//   - [OTLPHTTPProvider]: OTLP HTTP, connected by [Tracer.Start]
//
// A caller-owned provider can be supplied with [WithTracerProvider].
//
// # Log Correlation
//
// [TraceID] and [SpanID] read the identifiers of the span in a context.
// The logging package adds them to every record logged with a traced
// context.
//
// # Global State
//
// By default, this package does NOT set the global OpenTelemetry tracer
// provider. Use [WithGlobalTracerProvider] if you want global registration.
package tracing
