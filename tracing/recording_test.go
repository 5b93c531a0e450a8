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

//go:build !integration

package tracing

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rivaas.dev/dispatch/router"
)

type okController struct{}

func (okController) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

var errBoom = errors.New("boom")

func newDispatcher(t *testing.T, rec router.Recorder) *router.Dispatcher {
	t.Helper()

	d := router.MustNew(router.WithRecorder(rec))
	require.NoError(t, d.HandleFunc("/health$", func() router.Controller { return okController{} }))
	require.NoError(t, d.HandleModule("/admin/", router.RouteModuleFunc(func(s *router.RouteSet) error {
		return s.HandleFunc("/admin/ping$", func() router.Controller { return okController{} })
	})))
	require.NoError(t, d.HandleFactory("/widgets/", router.ControllerFactoryFunc(
		func(*router.DispatchContext) (router.Controller, error) { return nil, nil },
	)))
	require.NoError(t, d.HandleFactory("/broken/", router.ControllerFactoryFunc(
		func(*router.DispatchContext) (router.Controller, error) { return nil, errBoom },
	)))
	return d
}

func TestTracer_ResolveSpans(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantAttrs  map[string]any
		wantStatus codes.Code
		wantKind   bool
	}{
		{
			name: "direct match",
			path: "/health",
			wantAttrs: map[string]any{
				AttrPath: "/health", AttrOutcome: "matched", AttrRule: "/health$",
				AttrKind: "direct", AttrFrames: int64(1), AttrRetracted: int64(0), AttrDepth: int64(0),
			},
			wantStatus: codes.Ok,
			wantKind:   true,
		},
		{
			name: "module match",
			path: "/admin/ping",
			wantAttrs: map[string]any{
				AttrOutcome: "matched", AttrRule: "/admin/ping$", AttrKind: "direct",
				AttrFrames: int64(2), AttrDepth: int64(1),
			},
			wantStatus: codes.Ok,
			wantKind:   true,
		},
		{
			name: "retracted factory",
			path: "/widgets/1",
			wantAttrs: map[string]any{
				AttrOutcome: "unmatched", AttrFrames: int64(0), AttrRetracted: int64(1),
			},
			wantStatus: codes.Unset,
		},
		{
			name:       "factory error",
			path:       "/broken/1",
			wantAttrs:  map[string]any{AttrOutcome: "error"},
			wantStatus: codes.Error,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tracer, spans := TestingTracer(t)
			d := newDispatcher(t, tracer)

			_, _, _ = d.Resolve(context.Background(), tt.path)

			ended := endedNamed(spans, ResolveSpanName)
			require.Len(t, ended, 1)
			span := ended[0]

			assert.Equal(t, trace.SpanKindInternal, span.SpanKind())
			assert.Equal(t, tt.wantStatus, span.Status().Code)

			attrs := attrsOf(span)
			for k, want := range tt.wantAttrs {
				v, ok := attrs[attribute.Key(k)]
				require.True(t, ok, "missing attribute %s", k)
				assert.Equal(t, want, v.AsInterface(), k)
			}
			if !tt.wantKind {
				assert.NotContains(t, attrs, attribute.Key(AttrKind))
			}
		})
	}
}

func TestTracer_ResolveErrorRecorded(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	d := newDispatcher(t, tracer)

	_, _, err := d.Resolve(context.Background(), "/broken/x")
	require.ErrorIs(t, err, errBoom)

	ended := endedNamed(spans, ResolveSpanName)
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 1)
	assert.Equal(t, "exception", ended[0].Events()[0].Name)
	assert.Contains(t, ended[0].Status().Description, "boom")
}

func TestTracer_ResolveSpanIsChildOfContext(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	d := newDispatcher(t, tracer)

	ctx, parent := tracer.Tracer().Start(context.Background(), "request")
	_, _, err := d.Resolve(ctx, "/health")
	require.NoError(t, err)
	parent.End()

	ended := endedNamed(spans, ResolveSpanName)
	require.Len(t, ended, 1)
	assert.Equal(t, parent.SpanContext().TraceID(), ended[0].SpanContext().TraceID())
	assert.Equal(t, parent.SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestTracer_ResolvePanicEndsSpan(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	d := router.MustNew(router.WithRecorder(tracer))
	require.NoError(t, d.HandleFactory("/panic/", router.ControllerFactoryFunc(
		func(*router.DispatchContext) (router.Controller, error) { panic("factory exploded") },
	)))

	assert.Panics(t, func() { _, _, _ = d.Resolve(context.Background(), "/panic/") })

	ended := endedNamed(spans, ResolveSpanName)
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, router.ErrResolvePanicked.Error(), ended[0].Status().Description)
}

func TestTracer_NoSpansAfterShutdown(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	d := newDispatcher(t, tracer)
	require.NoError(t, tracer.Shutdown(context.Background()))

	_, _, err := d.Resolve(context.Background(), "/health")
	require.NoError(t, err)
	assert.Empty(t, spans.Ended())
}

func TestTracer_OnResolveEndIgnoresForeignState(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	assert.NotPanics(t, func() {
		tracer.OnResolveEnd(context.Background(), "not a span", router.ResolveInfo{})
	})
	assert.Empty(t, spans.Ended())
}
