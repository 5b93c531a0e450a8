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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"rivaas.dev/dispatch/router"
)

// DefaultDurationBuckets are histogram boundaries for resolution duration in
// seconds. Resolutions are in-process walks, so the range starts at 10µs.
var DefaultDurationBuckets = []float64{0.00001, 0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05, 0.1}

// EventType represents the severity of an internal operational event.
type EventType int

const (
	// EventError indicates an error event (e.g., failed to export metrics).
	EventError EventType = iota
	// EventWarning indicates a warning event.
	EventWarning
	// EventInfo indicates an informational event.
	EventInfo
	// EventDebug indicates a debug event.
	EventDebug
)

// Event represents an internal operational event from the metrics package.
type Event struct {
	Type    EventType
	Message string
	Args    []any // slog-style key-value pairs
}

// EventHandler processes internal operational events from the metrics package.
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

// Provider represents the available metrics providers.
type Provider string

const (
	// PrometheusProvider uses the Prometheus exporter (default).
	PrometheusProvider Provider = "prometheus"
	// OTLPProvider uses the OTLP HTTP exporter.
	OTLPProvider Provider = "otlp"
	// StdoutProvider uses the stdout exporter (development/testing).
	StdoutProvider Provider = "stdout"
)

// Errors returned by [New].
var (
	ErrNilMeterProvider    = errors.New("custom meter provider is nil")
	ErrMultipleProviders   = errors.New("multiple metrics providers configured")
	ErrUnsupportedProvider = errors.New("unsupported metrics provider")
	ErrInvalidBuckets      = errors.New("histogram buckets must be positive and strictly increasing")
	ErrInvalidInterval     = errors.New("export interval must be positive")
)

// Recorder holds the OpenTelemetry instruments for dispatcher resolutions.
// All methods are safe for concurrent use.
type Recorder struct {
	meter              metric.Meter
	meterProvider      metric.MeterProvider
	sdkProvider        *sdkmetric.MeterProvider // Owned provider, nil when custom
	prometheusHandler  http.Handler
	prometheusRegistry *promclient.Registry
	eventHandler       EventHandler

	resolutions metric.Int64Counter
	duration    metric.Float64Histogram
	inFlight    metric.Int64UpDownCounter
	retracted   metric.Int64Counter
	depth       metric.Int64Histogram

	durationBuckets []float64
	exportInterval  time.Duration
	otlpEndpoint    string

	serviceName    string
	serviceVersion string

	provider            Provider
	providerSetCount    int
	customMeterProvider bool
	registerGlobal      bool
	isShuttingDown      atomic.Bool
}

var _ router.Recorder = (*Recorder)(nil)

// New creates a [Recorder] with the given options.
func New(opts ...Option) (*Recorder, error) {
	r := newDefaultRecorder()
	for _, opt := range opts {
		opt(r)
	}

	if err := r.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := r.initializeProvider(); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}
	return r, nil
}

// MustNew creates a [Recorder] or panics on error.
func MustNew(opts ...Option) *Recorder {
	r, err := New(opts...)
	if err != nil {
		panic("metrics initialization failed: " + err.Error())
	}
	return r
}

func newDefaultRecorder() *Recorder {
	return &Recorder{
		serviceName:     "dispatchd",
		serviceVersion:  "dev",
		provider:        PrometheusProvider,
		exportInterval:  30 * time.Second,
		durationBuckets: DefaultDurationBuckets,
		eventHandler:    func(Event) {},
	}
}

func (r *Recorder) validate() error {
	var errs []error
	if r.providerSetCount > 1 {
		errs = append(errs, ErrMultipleProviders)
	}
	if r.customMeterProvider && r.meterProvider == nil {
		errs = append(errs, ErrNilMeterProvider)
	}
	if r.exportInterval <= 0 {
		errs = append(errs, ErrInvalidInterval)
	}
	if len(r.durationBuckets) == 0 {
		errs = append(errs, ErrInvalidBuckets)
	}
	for i, b := range r.durationBuckets {
		if b <= 0 || (i > 0 && b <= r.durationBuckets[i-1]) {
			errs = append(errs, ErrInvalidBuckets)
			break
		}
	}
	return errors.Join(errs...)
}

// Provider returns the configured provider.
func (r *Recorder) Provider() Provider {
	return r.provider
}

// ServiceName returns the service name recorded on the metrics resource.
func (r *Recorder) ServiceName() string {
	return r.serviceName
}

// Handler returns the Prometheus scrape handler. For other providers it
// returns a handler that responds 404.
func (r *Recorder) Handler() http.Handler {
	if r.prometheusHandler == nil {
		return http.NotFoundHandler()
	}
	return r.prometheusHandler
}

func (r *Recorder) emit(t EventType, msg string, args ...any) {
	r.eventHandler(Event{Type: t, Message: msg, Args: args})
}
