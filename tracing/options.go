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
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a [Tracer].
type Option func(*Tracer)

// WithTracerProvider uses a caller-owned tracer provider. Provider options
// are ignored and [Tracer.Shutdown] leaves the provider running.
//
// Example:
//
//	tp := sdktrace.NewTracerProvider(...)
//	tracer := tracing.MustNew(tracing.WithTracerProvider(tp))
//	defer tp.Shutdown(context.Background())
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(t *Tracer) {
		t.tracerProvider = provider
		t.customTracerProvider = true
	}
}

// WithGlobalTracerProvider registers the tracer provider as the global
// OpenTelemetry tracer provider. By default nothing global is touched.
func WithGlobalTracerProvider() Option {
	return func(t *Tracer) { t.registerGlobal = true }
}

// WithServiceName sets the service name recorded on the trace resource.
func WithServiceName(name string) Option {
	return func(t *Tracer) { t.serviceName = name }
}

// WithServiceVersion sets the service version recorded on the trace resource.
func WithServiceVersion(version string) Option {
	return func(t *Tracer) { t.serviceVersion = version }
}

// WithSampleRate sets the fraction of new traces to sample. Values are
// clamped to [0, 1]. Requests carrying a sampled parent are always sampled.
func WithSampleRate(rate float64) Option {
	return func(t *Tracer) {
		t.sampleRate = min(max(rate, 0), 1)
	}
}

// WithCustomPropagator replaces the default W3C Trace Context and Baggage
// propagator.
func WithCustomPropagator(propagator propagation.TextMapPropagator) Option {
	return func(t *Tracer) {
		if propagator != nil {
			t.propagator = propagator
		}
	}
}

// WithEventHandler sets the handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(t *Tracer) {
		if handler != nil {
			t.eventHandler = handler
		}
	}
}

// WithLogger routes internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}

// WithSpanStartHook sets a hook run after each HTTP request span starts.
func WithSpanStartHook(hook SpanStartHook) Option {
	return func(t *Tracer) { t.spanStartHook = hook }
}

// WithSpanFinishHook sets a hook run before each HTTP request span ends.
func WithSpanFinishHook(hook SpanFinishHook) Option {
	return func(t *Tracer) { t.spanFinishHook = hook }
}

// OTLPOption configures OTLP provider behavior.
type OTLPOption func(*Tracer)

// OTLPInsecure disables TLS for the gRPC exporter.
func OTLPInsecure() OTLPOption {
	return func(t *Tracer) { t.otlpInsecure = true }
}

// WithOTLP selects the OTLP gRPC provider. Endpoint format is "host:port".
// The exporter connects in [Tracer.Start].
//
// Example:
//
//	tracer := tracing.MustNew(tracing.WithOTLP("localhost:4317", tracing.OTLPInsecure()))
//	if err := tracer.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
func WithOTLP(endpoint string, opts ...OTLPOption) Option {
	return func(t *Tracer) {
		t.provider = OTLPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
		for _, opt := range opts {
			opt(t)
		}
	}
}

// WithOTLPHTTP selects the OTLP HTTP provider. An "http://" endpoint
// disables TLS.
func WithOTLPHTTP(endpoint string) Option {
	return func(t *Tracer) {
		t.provider = OTLPHTTPProvider
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(t *Tracer) {
		t.provider = StdoutProvider
		t.providerSetCount++
	}
}

// WithNoop selects the noop provider (default).
func WithNoop() Option {
	return func(t *Tracer) {
		t.provider = NoopProvider
		t.providerSetCount++
	}
}

// WithProvider selects a provider by value, for configuration-driven setup.
// endpoint is used by the OTLP providers only.
func WithProvider(p Provider, endpoint string) Option {
	return func(t *Tracer) {
		t.provider = p
		t.otlpEndpoint = endpoint
		t.providerSetCount++
	}
}

// SpanStartHook is called when an HTTP request span is started.
//
// Example:
//
//	hook := func(ctx context.Context, span trace.Span, req *http.Request) {
//	    span.SetAttributes(attribute.String("tenant.id", req.Header.Get("X-Tenant")))
//	}
type SpanStartHook func(ctx context.Context, span trace.Span, req *http.Request)

// SpanFinishHook is called when an HTTP request span is finished.
type SpanFinishHook func(span trace.Span, statusCode int)
