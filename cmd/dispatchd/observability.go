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

package main

import (
	"context"
	"fmt"
	"io"

	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/metrics"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/tracing"
)

const serviceName = "dispatchd"

// observability bundles the logger and the resolution recorders.
type observability struct {
	logger  *logging.Logger
	metrics *metrics.Recorder // nil when metrics are disabled
	tracer  *tracing.Tracer
}

func newObservability(s *Settings, logOut io.Writer) (*observability, error) {
	logger, err := newLogger(s.Log, logOut)
	if err != nil {
		return nil, err
	}
	obs := &observability{logger: logger}

	if obs.metrics, err = newMetrics(s.Metrics, logger); err != nil {
		return nil, err
	}
	if obs.tracer, err = newTracer(s.Tracing, logger); err != nil {
		return nil, err
	}
	return obs, nil
}

func newLogger(s LogSettings, out io.Writer) (*logging.Logger, error) {
	level, err := logging.ParseLevel(s.Level)
	if err != nil {
		return nil, err
	}
	handler, err := logging.ParseHandlerType(s.Format)
	if err != nil {
		return nil, err
	}
	return logging.New(
		logging.WithHandlerType(handler),
		logging.WithOutput(out),
		logging.WithLevel(level),
		logging.WithServiceName(serviceName),
		logging.WithServiceVersion(version),
		logging.WithTraceCorrelation(true),
	)
}

func newMetrics(s MetricsSettings, logger *logging.Logger) (*metrics.Recorder, error) {
	opts := []metrics.Option{
		metrics.WithServiceName(serviceName),
		metrics.WithServiceVersion(version),
		metrics.WithLogger(logger.Logger()),
	}
	switch s.Provider {
	case "none":
		return nil, nil
	case string(metrics.OTLPProvider):
		opts = append(opts, metrics.WithOTLP(s.Endpoint))
	default:
		opts = append(opts, metrics.WithProvider(metrics.Provider(s.Provider)))
	}

	rec, err := metrics.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics recorder: %w", err)
	}
	return rec, nil
}

func newTracer(s TracingSettings, logger *logging.Logger) (*tracing.Tracer, error) {
	opts := []tracing.Option{
		tracing.WithServiceName(serviceName),
		tracing.WithServiceVersion(version),
		tracing.WithSampleRate(s.SampleRate),
		tracing.WithLogger(logger.Logger()),
	}
	switch tracing.Provider(s.Provider) {
	case tracing.OTLPProvider:
		var otlp []tracing.OTLPOption
		if s.Insecure {
			otlp = append(otlp, tracing.OTLPInsecure())
		}
		opts = append(opts, tracing.WithOTLP(s.Endpoint, otlp...))
	case tracing.OTLPHTTPProvider:
		opts = append(opts, tracing.WithOTLPHTTP(s.Endpoint))
	default:
		opts = append(opts, tracing.WithProvider(tracing.Provider(s.Provider), ""))
	}

	t, err := tracing.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	return t, nil
}

// recorders returns the recorders to attach to the dispatcher.
func (o *observability) recorders() []router.Recorder {
	recs := []router.Recorder{o.tracer}
	if o.metrics != nil {
		recs = append(recs, o.metrics)
	}
	return recs
}

// start connects exporters that need the network.
func (o *observability) start(ctx context.Context) error {
	if err := o.tracer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start tracing: %w", err)
	}
	return nil
}

// shutdown flushes and stops the recorders. Failures are logged.
func (o *observability) shutdown(ctx context.Context) {
	if o.metrics != nil {
		if err := o.metrics.Shutdown(ctx); err != nil {
			o.logger.Warn("metrics shutdown failed", "error", err)
		}
	}
	if err := o.tracer.Shutdown(ctx); err != nil {
		o.logger.Warn("tracing shutdown failed", "error", err)
	}
}
