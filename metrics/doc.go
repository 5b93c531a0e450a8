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

// Package metrics records OpenTelemetry metrics for dispatcher resolutions.
//
// A [Recorder] implements [router.Recorder]; attach it with
// [router.WithRecorder] and every resolution is counted and timed.
//
// # Basic Usage
//
//	recorder := metrics.MustNew(
//	    metrics.WithPrometheus(),
//	    metrics.WithServiceName("dispatchd"),
//	)
//	defer recorder.Shutdown(context.Background())
//
//	d := router.MustNew(router.WithRecorder(recorder))
//	mux.Handle("/metrics", recorder.Handler())
//
// # Instruments
//
//   - dispatch_resolutions_total{outcome, kind}: resolutions by outcome
//     (matched, unmatched, error) and the kind of the producing rule
//   - dispatch_resolution_duration_seconds{outcome}: time spent walking rules
//   - dispatch_resolutions_in_flight: resolutions currently running
//   - dispatch_frames_retracted_total: factory and module frames entered
//     without producing a controller
//   - dispatch_module_depth: module nesting of matched resolutions
//
// # Providers
//
//   - [PrometheusProvider] (default): pull endpoint served by [Recorder.Handler]
//   - [OTLPProvider]: pushes to an OTLP/HTTP collector
//   - [StdoutProvider]: periodic dumps to stdout for development
//
// A caller-owned [metric.MeterProvider] can be supplied with
// [WithMeterProvider]; tests use this with an sdk ManualReader.
//
// # Global State
//
// By default, this package does NOT set the global OpenTelemetry meter provider.
// Use [WithGlobalMeterProvider] if you want global registration.
package metrics
