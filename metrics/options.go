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
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Option configures a [Recorder].
type Option func(*Recorder)

// WithPrometheus selects the Prometheus provider (default). The scrape
// endpoint is served by [Recorder.Handler] on whatever mux the caller owns.
func WithPrometheus() Option {
	return func(r *Recorder) {
		r.provider = PrometheusProvider
		r.providerSetCount++
	}
}

// WithOTLP selects the OTLP HTTP provider. endpoint may carry an
// "http://" scheme to disable TLS; a trailing path is ignored.
func WithOTLP(endpoint string) Option {
	return func(r *Recorder) {
		r.provider = OTLPProvider
		r.otlpEndpoint = endpoint
		r.providerSetCount++
	}
}

// WithStdout selects the stdout provider.
func WithStdout() Option {
	return func(r *Recorder) {
		r.provider = StdoutProvider
		r.providerSetCount++
	}
}

// WithProvider selects a provider by value, for configuration-driven setup.
func WithProvider(p Provider) Option {
	return func(r *Recorder) {
		r.provider = p
		r.providerSetCount++
	}
}

// WithMeterProvider uses a caller-owned meter provider instead of building
// one. The caller is responsible for shutting it down.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(r *Recorder) {
		r.meterProvider = provider
		r.customMeterProvider = true
	}
}

// WithGlobalMeterProvider registers the built meter provider as the global
// OpenTelemetry meter provider.
func WithGlobalMeterProvider() Option {
	return func(r *Recorder) { r.registerGlobal = true }
}

// WithServiceName sets the service name recorded on the metrics resource.
func WithServiceName(name string) Option {
	return func(r *Recorder) { r.serviceName = name }
}

// WithServiceVersion sets the service version recorded on the metrics resource.
func WithServiceVersion(version string) Option {
	return func(r *Recorder) { r.serviceVersion = version }
}

// WithExportInterval sets the push interval of the OTLP and stdout providers.
func WithExportInterval(interval time.Duration) Option {
	return func(r *Recorder) { r.exportInterval = interval }
}

// WithDurationBuckets sets the resolution duration histogram boundaries in
// seconds.
func WithDurationBuckets(buckets ...float64) Option {
	return func(r *Recorder) { r.durationBuckets = slices.Clone(buckets) }
}

// WithEventHandler sets the handler for internal operational events.
func WithEventHandler(handler EventHandler) Option {
	return func(r *Recorder) {
		if handler != nil {
			r.eventHandler = handler
		}
	}
}

// WithLogger routes internal events to logger.
func WithLogger(logger *slog.Logger) Option {
	return WithEventHandler(DefaultEventHandler(logger))
}
