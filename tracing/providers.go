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
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// initializeProvider sets up the providers that need no network connection.
func (t *Tracer) initializeProvider() error {
	if t.customTracerProvider {
		t.emit(EventDebug, "Using custom user-provided tracer provider")
		t.useProvider(t.tracerProvider)
		return nil
	}

	switch t.provider {
	case NoopProvider:
		t.installSDKProvider()
		return nil
	case StdoutProvider:
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		t.installSDKProvider(sdktrace.WithBatcher(exporter))
		t.emit(EventInfo, "Tracing initialized", "provider", t.provider, "service", t.serviceName)
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, t.provider)
	}
}

// initializeProviderWithContext sets up the OTLP providers.
func (t *Tracer) initializeProviderWithContext(ctx context.Context) error {
	endpoint, insecure := splitEndpoint(t.otlpEndpoint)
	insecure = insecure || t.otlpInsecure

	var exporter sdktrace.SpanExporter
	switch t.provider {
	case OTLPProvider:
		var opts []otlptracegrpc.Option
		if endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
		}
		if insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP gRPC exporter: %w", err)
		}
		exporter = exp
	case OTLPHTTPProvider:
		var opts []otlptracehttp.Option
		if endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpoint(endpoint))
		}
		if insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP HTTP exporter: %w", err)
		}
		exporter = exp
	default:
		return fmt.Errorf("provider %s does not require context initialization", t.provider)
	}

	t.installSDKProvider(sdktrace.WithBatcher(exporter))
	t.emit(EventInfo, "Tracing initialized", "provider", t.provider, "endpoint", endpoint, "service", t.serviceName)
	return nil
}

// installSDKProvider builds an owned SDK provider with the service resource
// and the configured sampler.
func (t *Tracer) installSDKProvider(opts ...sdktrace.TracerProviderOption) {
	opts = append(opts,
		sdktrace.WithResource(createResource(t.serviceName, t.serviceVersion)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(t.sampleRate))),
	)
	tp := sdktrace.NewTracerProvider(opts...)
	t.sdkProvider = tp
	t.useProvider(tp)
}

func (t *Tracer) useProvider(tp trace.TracerProvider) {
	t.tracerProvider = tp
	t.tracer = tp.Tracer(tracerName)
	if t.registerGlobal {
		t.emit(EventDebug, "Setting global OpenTelemetry tracer provider", "provider", t.provider)
		otel.SetTracerProvider(tp)
	}
}

// splitEndpoint strips the scheme and any path from endpoint. An "http://"
// scheme reports insecure.
func splitEndpoint(endpoint string) (hostPort string, insecure bool) {
	if trimmed, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = trimmed
		insecure = true
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if idx := strings.IndexByte(endpoint, '/'); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return endpoint, insecure
}

// createResource creates an OpenTelemetry resource with service information.
func createResource(serviceName, serviceVersion string) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(serviceVersion),
	)
}
