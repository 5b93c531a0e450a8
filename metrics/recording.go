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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"rivaas.dev/dispatch/router"
)

// Attribute keys shared by the instruments.
const (
	attrOutcome = "outcome"
	attrKind    = "kind"
)

// kindNone labels resolutions that produced no controller.
const kindNone = "none"

// resolveStarted is the state handed from OnResolveStart to OnResolveEnd.
type resolveStarted struct{}

// initializeMetrics creates the instruments.
func (r *Recorder) initializeMetrics() error {
	var err error

	r.resolutions, err = r.meter.Int64Counter(
		"dispatch_resolutions_total",
		metric.WithDescription("Total number of path resolutions by outcome and rule kind"),
	)
	if err != nil {
		return fmt.Errorf("failed to create resolutions counter: %w", err)
	}

	r.duration, err = r.meter.Float64Histogram(
		"dispatch_resolution_duration_seconds",
		metric.WithDescription("Time spent walking the rule chain in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(r.durationBuckets...),
	)
	if err != nil {
		return fmt.Errorf("failed to create resolution duration histogram: %w", err)
	}

	r.inFlight, err = r.meter.Int64UpDownCounter(
		"dispatch_resolutions_in_flight",
		metric.WithDescription("Number of resolutions currently running"),
	)
	if err != nil {
		return fmt.Errorf("failed to create in-flight counter: %w", err)
	}

	r.retracted, err = r.meter.Int64Counter(
		"dispatch_frames_retracted_total",
		metric.WithDescription("Factory and module frames entered without producing a controller"),
	)
	if err != nil {
		return fmt.Errorf("failed to create retracted frames counter: %w", err)
	}

	r.depth, err = r.meter.Int64Histogram(
		"dispatch_module_depth",
		metric.WithDescription("Module nesting depth of matched resolutions"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 8),
	)
	if err != nil {
		return fmt.Errorf("failed to create module depth histogram: %w", err)
	}

	return nil
}

// OnResolveStart implements [router.Recorder].
func (r *Recorder) OnResolveStart(ctx context.Context, _ string) (context.Context, any) {
	if r.isShuttingDown.Load() {
		return ctx, nil
	}
	r.inFlight.Add(ctx, 1)
	return ctx, resolveStarted{}
}

// OnResolveEnd implements [router.Recorder].
func (r *Recorder) OnResolveEnd(ctx context.Context, _ any, info router.ResolveInfo) {
	r.inFlight.Add(ctx, -1)

	kind := kindNone
	if info.Outcome == router.OutcomeMatched {
		kind = info.Kind.String()
	}
	outcome := attribute.String(attrOutcome, string(info.Outcome))

	r.resolutions.Add(ctx, 1, metric.WithAttributes(outcome, attribute.String(attrKind, kind)))
	r.duration.Record(ctx, info.Duration.Seconds(), metric.WithAttributes(outcome))
	if info.Retracted > 0 {
		r.retracted.Add(ctx, int64(info.Retracted))
	}
	if info.Outcome == router.OutcomeMatched {
		r.depth.Record(ctx, int64(info.Depth))
	}
}
