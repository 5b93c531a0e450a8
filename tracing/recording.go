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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/router"
)

// ResolveSpanName is the name of the span recorded around each resolution.
const ResolveSpanName = "dispatch.resolve"

// Span attribute keys for resolutions.
const (
	AttrPath      = "dispatch.path"
	AttrOutcome   = "dispatch.outcome"
	AttrRule      = "dispatch.rule"
	AttrKind      = "dispatch.kind"
	AttrFrames    = "dispatch.frames"
	AttrRetracted = "dispatch.retracted"
	AttrDepth     = "dispatch.depth"
)

var _ router.Recorder = (*Tracer)(nil)

// OnResolveStart implements [router.Recorder]. It starts a child span of
// the span in ctx and returns ctx carrying it, so log lines written during
// the resolution share its trace.
func (t *Tracer) OnResolveStart(ctx context.Context, path string) (context.Context, any) {
	if !t.IsEnabled() {
		return ctx, nil
	}
	ctx, span := t.tracer.Start(ctx, ResolveSpanName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String(AttrPath, path)),
	)
	return ctx, span
}

// OnResolveEnd implements [router.Recorder].
func (t *Tracer) OnResolveEnd(_ context.Context, state any, info router.ResolveInfo) {
	span, ok := state.(trace.Span)
	if !ok {
		return
	}
	defer span.End()

	if !span.IsRecording() {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(AttrOutcome, string(info.Outcome)),
		attribute.Int(AttrFrames, info.Frames),
		attribute.Int(AttrRetracted, info.Retracted),
	}
	if info.Outcome == router.OutcomeMatched {
		attrs = append(attrs,
			attribute.String(AttrRule, info.Rule),
			attribute.String(AttrKind, info.Kind.String()),
			attribute.Int(AttrDepth, info.Depth),
		)
	}
	span.SetAttributes(attrs...)

	switch info.Outcome {
	case router.OutcomeError:
		span.RecordError(info.Err)
		span.SetStatus(codes.Error, info.Err.Error())
	case router.OutcomeMatched:
		span.SetStatus(codes.Ok, "")
	}
}
