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

package tracing

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestingTracer creates a [Tracer] backed by an in-memory span recorder.
// The provider is shut down with t.Cleanup.
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    t.Parallel()
//	    tracer, spans := tracing.TestingTracer(t)
//	    // resolve paths, then inspect spans.Ended()
//	}
func TestingTracer(t testing.TB, opts ...Option) (*Tracer, *tracetest.SpanRecorder) {
	t.Helper()

	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	defaults := []Option{
		WithServiceName("test-service"),
		WithServiceVersion("v1.0.0"),
		WithTracerProvider(tp),
	}
	tracer, err := New(append(defaults, opts...)...)
	require.NoError(t, err, "TestingTracer: failed to create tracer")

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			t.Logf("TestingTracer: shutdown warning: %v", err)
		}
	})

	return tracer, spans
}

// TestingMiddleware creates tracing middleware around a [TestingTracer].
func TestingMiddleware(t testing.TB, opts ...MiddlewareOption) (func(http.Handler) http.Handler, *tracetest.SpanRecorder) {
	t.Helper()

	tracer, spans := TestingTracer(t)
	return Middleware(tracer, opts...), spans
}
