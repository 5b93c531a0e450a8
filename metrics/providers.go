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

package metrics

import (
	"context"
	"fmt"
	"strings"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// meterName is the instrumentation scope of every instrument.
const meterName = "rivaas.dev/dispatch/metrics"

// initializeProvider builds the meter provider and the instruments.
func (r *Recorder) initializeProvider() error {
	if r.customMeterProvider {
		r.emit(EventDebug, "Using custom user-provided meter provider")
		r.meter = r.meterProvider.Meter(meterName)
		return r.initializeMetrics()
	}

	var reader sdkmetric.Reader
	switch r.provider {
	case PrometheusProvider:
		r.prometheusRegistry = promclient.NewRegistry()
		exporter, err := prometheus.New(prometheus.WithRegisterer(r.prometheusRegistry))
		if err != nil {
			return fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		r.prometheusHandler = promhttp.HandlerFor(r.prometheusRegistry, promhttp.HandlerOpts{})
		reader = exporter
	case OTLPProvider:
		exporter, err := otlpmetrichttp.New(context.Background(), otlpOptions(r.otlpEndpoint)...)
		if err != nil {
			return fmt.Errorf("failed to create OTLP exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	case StdoutProvider:
		exporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(r.exportInterval))
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedProvider, r.provider)
	}

	r.sdkProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(r.serviceName),
			semconv.ServiceVersion(r.serviceVersion),
		)),
	)
	r.meterProvider = r.sdkProvider

	if r.registerGlobal {
		r.emit(EventDebug, "Setting global OpenTelemetry meter provider", "provider", r.provider)
		otel.SetMeterProvider(r.meterProvider)
	}

	r.meter = r.meterProvider.Meter(meterName)
	if err := r.initializeMetrics(); err != nil {
		return err
	}

	r.emit(EventInfo, "Metrics initialized", "provider", r.provider, "service", r.serviceName)
	return nil
}

// otlpOptions translates an endpoint URL into exporter options.
func otlpOptions(endpoint string) []otlpmetrichttp.Option {
	if endpoint == "" {
		return nil
	}

	var opts []otlpmetrichttp.Option
	if trimmed, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint = trimmed
		opts = append(opts, otlpmetrichttp.WithInsecure())
	} else {
		endpoint = strings.TrimPrefix(endpoint, "https://")
	}
	if idx := strings.IndexByte(endpoint, '/'); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return append(opts, otlpmetrichttp.WithEndpoint(endpoint))
}

// Shutdown flushes and stops the meter provider built by [New]. Caller-owned
// providers are left running. It is safe to call more than once.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if !r.isShuttingDown.CompareAndSwap(false, true) {
		return nil
	}
	if r.sdkProvider == nil {
		return nil
	}
	if err := r.sdkProvider.Shutdown(ctx); err != nil {
		r.emit(EventError, "Error shutting down meter provider", "error", err)
		return fmt.Errorf("meter provider shutdown: %w", err)
	}
	return nil
}
