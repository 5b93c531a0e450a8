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

package metrics

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"rivaas.dev/dispatch/router"
)

type okController struct{}

func (okController) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// newDispatcher builds a dispatcher with a direct rule, a retracting factory
// and a module, recorded by rec.
func newDispatcher(t *testing.T, rec router.Recorder) *router.Dispatcher {
	t.Helper()

	d := router.MustNew(router.WithRecorder(rec))
	require.NoError(t, d.HandleFunc("/health$", func() router.Controller { return okController{} }))
	require.NoError(t, d.HandleFactory("/widgets/", router.ControllerFactoryFunc(
		func(*router.DispatchContext) (router.Controller, error) { return nil, nil },
	)))
	require.NoError(t, d.HandleModule("/admin/", router.RouteModuleFunc(func(s *router.RouteSet) error {
		return s.HandleFunc("/admin/ping$", func() router.Controller { return okController{} })
	})))
	return d
}

// sumValue returns the counter value for the data point carrying attrs.
func sumValue(t *testing.T, m metricdata.Metrics, attrs ...attribute.KeyValue) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "metric %s is not an int64 sum", m.Name)

	want := attribute.NewSet(attrs...)
	for _, dp := range sum.DataPoints {
		if dp.Attributes.Equals(&want) {
			return dp.Value
		}
	}
	return 0
}

func TestRecorder_RecordsResolutions(t *testing.T) {
	t.Parallel()

	rec, reader := TestingRecorder(t)
	d := newDispatcher(t, rec)

	ctx := context.Background()
	for _, path := range []string{"/health", "/health", "/admin/ping", "/widgets/1", "/missing"} {
		_, _, err := d.Resolve(ctx, path)
		require.NoError(t, err)
	}

	got := Collect(t, reader)

	resolutions, ok := got["dispatch_resolutions_total"]
	require.True(t, ok)
	// The module match reports the kind of the nested rule that produced
	// the controller.
	assert.Equal(t, int64(3), sumValue(t, resolutions,
		attribute.String(attrOutcome, "matched"), attribute.String(attrKind, "direct")))
	assert.Equal(t, int64(2), sumValue(t, resolutions,
		attribute.String(attrOutcome, "unmatched"), attribute.String(attrKind, kindNone)))

	inFlight, ok := got["dispatch_resolutions_in_flight"]
	require.True(t, ok)
	assert.Equal(t, int64(0), sumValue(t, inFlight))

	retracted, ok := got["dispatch_frames_retracted_total"]
	require.True(t, ok)
	assert.Equal(t, int64(1), sumValue(t, retracted))

	duration, ok := got["dispatch_resolution_duration_seconds"]
	require.True(t, ok)
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(5), count)

	depth, ok := got["dispatch_module_depth"]
	require.True(t, ok)
	depthHist, ok := depth.Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	require.Len(t, depthHist.DataPoints, 1)
	assert.Equal(t, uint64(3), depthHist.DataPoints[0].Count)
	assert.Equal(t, int64(1), depthHist.DataPoints[0].Sum)
}

func TestRecorder_RecordsErrors(t *testing.T) {
	t.Parallel()

	rec, reader := TestingRecorder(t)
	d := router.MustNew(router.WithRecorder(rec))
	require.NoError(t, d.HandleModule("/broken/", router.RouteModuleFunc(func(*router.RouteSet) error {
		return assert.AnError
	})))

	_, _, err := d.Resolve(context.Background(), "/broken/x")
	require.Error(t, err)

	got := Collect(t, reader)
	assert.Equal(t, int64(1), sumValue(t, got["dispatch_resolutions_total"],
		attribute.String(attrOutcome, "error"), attribute.String(attrKind, kindNone)))
	assert.NotContains(t, got, "dispatch_module_depth")
}

func TestRecorder_SkipsAfterShutdown(t *testing.T) {
	t.Parallel()

	rec, reader := TestingRecorder(t)
	d := newDispatcher(t, rec)

	require.NoError(t, rec.Shutdown(context.Background()))

	_, _, err := d.Resolve(context.Background(), "/health")
	require.NoError(t, err)

	got := Collect(t, reader)
	assert.NotContains(t, got, "dispatch_resolutions_total")
}

func TestRecorder_OnResolveStartState(t *testing.T) {
	t.Parallel()

	rec, _ := TestingRecorder(t)
	ctx := context.Background()

	gotCtx, state := rec.OnResolveStart(ctx, "/x")
	assert.Equal(t, ctx, gotCtx)
	assert.NotNil(t, state)
	rec.OnResolveEnd(gotCtx, state, router.ResolveInfo{Path: "/x", Outcome: router.OutcomeUnmatched})
}
