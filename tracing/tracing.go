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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export spans).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event (e.g., tracing initialized).
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event represents an internal operational event from the tracing package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events from the tracing package.
//
// Example custom handler:
//
//	tracing.WithEventHandler(func(e tracing.Event) {
//	    if e.Type == tracing.EventError {
//	        alert(e.Message)
//	    }
//	})
type EventHandler func(Event)

// DefaultEventHandler returns an EventHandler that logs events to logger.
// If logger is nil, it returns a no-op handler.
func DefaultEventHandler(logger *slog.Logger) EventHandler {
	if logger == nil {
		return func(Event) {}
	}
	return func(e Event) {
		switch e.Type {
		case EventError:
			logger.Error(e.Message, e.Args...)
		case EventWarning:
			logger.Warn(e.Message, e.Args...)
		case EventInfo:
			logger.Info(e.Message, e.Args...)
		case EventDebug:
			logger.Debug(e.Message, e.Args...)
		}
	}
}

const (
	// DefaultServiceName is the service name used when none is provided.
	DefaultServiceName = "dispatchd"

	// DefaultServiceVersion is the service version used when none is provided.
	DefaultServiceVersion = "dev"

	// DefaultSampleRate samples every trace.
	DefaultSampleRate = 1.0
)

// tracerName is the instrumentation scope of every span.
const tracerName = "rivaas.dev/dispatch/tracing"

// Provider represents the available tracing providers.
type Provider string

const (
	// NoopProvider records spans in-process without exporting them (default).
	NoopProvider Provider = "noop"

	// StdoutProvider exports traces to stdout (development/testing).
	StdoutProvider Provider = "stdout"

	// OTLPProvider exports traces via OTLP gRPC.
	OTLPProvider Provider = "otlp"

	// OTLPHTTPProvider exports traces via OTLP HTTP.
	OTLPHTTPProvider Provider = "otlp-http"
)

// Errors returned by [New] and [Tracer.Start].
var (
	ErrMultipleProviders   = errors.New("multiple tracing providers configured")
	ErrUnsupportedProvider = errors.New("unsupported tracing provider")
	ErrNilTracerProvider   = errors.New("custom tracer provider is nil")
	ErrAlreadyStarted      = errors.New("tracer already started")
)

// Tracer creates spans for dispatcher resolutions and HTTP requests.
//
// A Tracer implements [router.Recorder]. The noop and stdout providers are
// ready after [New]; the OTLP providers open their exporter in
// [Tracer.Start] and record nothing until then.
//
// All methods are safe for concurrent use.
type Tracer struct {
	tracer         trace.Tracer
	propagator     propagation.TextMapPropagator
	tracerProvider trace.TracerProvider
	sdkProvider    *sdktrace.TracerProvider // Owned provider, nil when custom
	eventHandler   EventHandler

	serviceName    string
	serviceVersion string
	provider       Provider
	otlpEndpoint   string
	sampleRate     float64

	spanStartHook  SpanStartHook
	spanFinishHook SpanFinishHook

	startOnce    sync.Once
	startErr     error
	started      atomic.Bool
	shutdownOnce sync.Once
	shutdownErr  error

	providerSetCount     int
	otlpInsecure         bool
	customTracerProvider bool
	registerGlobal       bool
}

// New creates a [Tracer] with the given options.
//
// Example:
//
//	tracer, err := tracing.New(
//	    tracing.WithServiceName("dispatchd"),
//	    tracing.WithStdout(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tracer.Shutdown(context.Background())
func New(opts ...Option) (*Tracer, error) {
	t := &Tracer{
		serviceName:    DefaultServiceName,
		serviceVersion: DefaultServiceVersion,
		provider:       NoopProvider,
		sampleRate:     DefaultSampleRate,
		propagator: propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
		tracer:       noop.NewTracerProvider().Tracer(tracerName),
		eventHandler: func(Event) {},
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if t.needsStart() {
		return t, nil
	}
	if err := t.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	t.started.Store(true)
	return t, nil
}

// MustNew creates a [Tracer] or panics on error.
func MustNew(opts ...Option) *Tracer {
	t, err := New(opts...)
	if err != nil {
		panic("tracing initialization failed: " + err.Error())
	}
	return t
}

func (t *Tracer) validate() error {
	var errs []error
	if t.providerSetCount > 1 {
		errs = append(errs, ErrMultipleProviders)
	}
	if t.customTracerProvider && t.tracerProvider == nil {
		errs = append(errs, ErrNilTracerProvider)
	}
	switch t.provider {
	case NoopProvider, StdoutProvider, OTLPProvider, OTLPHTTPProvider:
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnsupportedProvider, t.provider))
	}
	return errors.Join(errs...)
}

// needsStart reports whether the exporter is opened by [Tracer.Start].
func (t *Tracer) needsStart() bool {
	if t.customTracerProvider {
		return false
	}
	return t.provider == OTLPProvider || t.provider == OTLPHTTPProvider
}

// Start opens the OTLP exporter. ctx bounds the connection setup. For the
// other providers Start does nothing. Calling Start again returns the result
// of the first call.
func (t *Tracer) Start(ctx context.Context) error {
	if !t.needsStart() {
		return nil
	}
	t.startOnce.Do(func() {
		if err := t.initializeProviderWithContext(ctx); err != nil {
			t.startErr = fmt.Errorf("failed to start tracing: %w", err)
			return
		}
		t.started.Store(true)
	})
	return t.startErr
}

// IsEnabled reports whether spans are being created.
func (t *Tracer) IsEnabled() bool {
	return t.started.Load()
}

// Provider returns the configured provider.
func (t *Tracer) Provider() Provider {
	return t.provider
}

// ServiceName returns the service name recorded on spans.
func (t *Tracer) ServiceName() string {
	return t.serviceName
}

// ServiceVersion returns the service version recorded on spans.
func (t *Tracer) ServiceVersion() string {
	return t.serviceVersion
}

// Tracer returns the underlying OpenTelemetry tracer.
func (t *Tracer) Tracer() trace.Tracer {
	return t.tracer
}

// Propagator returns the propagator used for trace context headers.
func (t *Tracer) Propagator() propagation.TextMapPropagator {
	return t.propagator
}

// ExtractTraceContext extracts trace context from HTTP request headers.
// Uses W3C Trace Context and Baggage by default.
func (t *Tracer) ExtractTraceContext(ctx context.Context, headers http.Header) context.Context {
	return t.propagator.Extract(ctx, propagation.HeaderCarrier(headers))
}

// InjectTraceContext writes the trace context of ctx into headers.
func (t *Tracer) InjectTraceContext(ctx context.Context, headers http.Header) {
	t.propagator.Inject(ctx, propagation.HeaderCarrier(headers))
}

// Shutdown flushes and stops the tracer provider built by this package.
// Caller-owned providers are left running. It is safe to call more than
// once; later calls return the first result.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.shutdownOnce.Do(func() {
		t.started.Store(false)
		if t.sdkProvider == nil {
			if t.customTracerProvider {
				t.emit(EventDebug, "Skipping shutdown of custom tracer provider (managed by user)")
			}
			return
		}
		if err := t.sdkProvider.Shutdown(ctx); err != nil {
			t.emit(EventError, "Error shutting down tracer provider", "error", err)
			t.shutdownErr = fmt.Errorf("tracer provider shutdown: %w", err)
			return
		}
		t.emit(EventDebug, "Tracer provider shut down successfully")
	})
	return t.shutdownErr
}

// TraceID returns the trace ID of the span in ctx, or "" if there is none.
func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// SpanID returns the span ID of the span in ctx, or "" if there is none.
func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}

func (t *Tracer) emit(typ EventType, msg string, args ...any) {
	t.eventHandler(Event{Type: typ, Message: msg, Args: args})
}
