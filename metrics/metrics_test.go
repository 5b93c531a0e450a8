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
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	r, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	assert.Equal(t, PrometheusProvider, r.Provider())
	assert.Equal(t, "dispatchd", r.ServiceName())
	assert.NotNil(t, r.prometheusRegistry)
	assert.NotNil(t, r.sdkProvider)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{
			name:    "multiple providers",
			opts:    []Option{WithPrometheus(), WithStdout()},
			wantErr: ErrMultipleProviders,
		},
		{
			name:    "nil meter provider",
			opts:    []Option{WithMeterProvider(nil)},
			wantErr: ErrNilMeterProvider,
		},
		{
			name:    "zero export interval",
			opts:    []Option{WithExportInterval(0)},
			wantErr: ErrInvalidInterval,
		},
		{
			name:    "empty buckets",
			opts:    []Option{WithDurationBuckets()},
			wantErr: ErrInvalidBuckets,
		},
		{
			name:    "decreasing buckets",
			opts:    []Option{WithDurationBuckets(0.1, 0.01)},
			wantErr: ErrInvalidBuckets,
		},
		{
			name:    "negative bucket",
			opts:    []Option{WithDurationBuckets(-1, 1)},
			wantErr: ErrInvalidBuckets,
		},
		{
			name:    "unknown provider",
			opts:    []Option{WithProvider("statsd")},
			wantErr: ErrUnsupportedProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := New(tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, r)
		})
	}
}

func TestNew_JoinsValidationErrors(t *testing.T) {
	t.Parallel()

	_, err := New(WithPrometheus(), WithStdout(), WithExportInterval(-time.Second))
	require.ErrorIs(t, err, ErrMultipleProviders)
	require.ErrorIs(t, err, ErrInvalidInterval)
}

func TestMustNew_Panics(t *testing.T) {
	t.Parallel()

	assert.PanicsWithValue(t, "metrics initialization failed: invalid configuration: "+ErrInvalidInterval.Error(), func() {
		MustNew(WithExportInterval(0))
	})
}

func TestRecorder_PrometheusHandler(t *testing.T) {
	t.Parallel()

	r := MustNew(WithPrometheus(), WithServiceName("scrape-test"))
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	d := newDispatcher(t, r)
	_, _, err := d.Resolve(context.Background(), "/health")
	require.NoError(t, err)

	srv := httptest.NewServer(r.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "dispatch_resolutions_total")
	assert.Contains(t, string(body), `outcome="matched"`)
	assert.Contains(t, string(body), "dispatch_resolution_duration_seconds_bucket")
}

func TestRecorder_HandlerWithoutPrometheus(t *testing.T) {
	t.Parallel()

	r, _ := TestingRecorder(t)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecorder_StdoutProvider(t *testing.T) {
	t.Parallel()

	r, err := New(WithStdout(), WithExportInterval(time.Hour))
	require.NoError(t, err)

	assert.Equal(t, StdoutProvider, r.Provider())
	assert.NotNil(t, r.sdkProvider)
	assert.NoError(t, r.Shutdown(context.Background()))
}

func TestRecorder_OTLPProvider(t *testing.T) {
	t.Parallel()

	r, err := New(WithOTLP("http://127.0.0.1:4318/v1/metrics"), WithExportInterval(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OTLPProvider, r.Provider())
	assert.Equal(t, "http://127.0.0.1:4318/v1/metrics", r.otlpEndpoint)

	// No collector is listening; only the provider lifecycle matters here.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_ = r.Shutdown(ctx)
}

func TestOTLPOptions(t *testing.T) {
	t.Parallel()

	assert.Empty(t, otlpOptions(""))
	assert.Len(t, otlpOptions("http://collector:4318"), 2)
	assert.Len(t, otlpOptions("https://collector:4318/v1/metrics"), 1)
	assert.Len(t, otlpOptions("collector:4318"), 1)
}

func TestRecorder_ShutdownIdempotent(t *testing.T) {
	t.Parallel()

	r := MustNew()
	ctx := context.Background()

	require.NoError(t, r.Shutdown(ctx))
	require.NoError(t, r.Shutdown(ctx))
}

func TestRecorder_CustomProviderLeftRunning(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	r, err := New(WithMeterProvider(provider), WithStdout())
	require.NoError(t, err)
	require.NoError(t, r.Shutdown(context.Background()))

	// The caller still owns the provider.
	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestRecorder_EventHandler(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []Event
	)
	r, err := New(WithEventHandler(func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Shutdown(context.Background()) })

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventInfo, last.Type)
	assert.Equal(t, "Metrics initialized", last.Message)
}

func TestDefaultEventHandler(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	handler := DefaultEventHandler(logger)

	handler(Event{Type: EventError, Message: "export failed", Args: []any{"attempt", 2}})
	handler(Event{Type: EventWarning, Message: "slow export"})
	handler(Event{Type: EventInfo, Message: "ready"})
	handler(Event{Type: EventDebug, Message: "details"})

	out := buf.String()
	assert.Contains(t, out, `level=ERROR msg="export failed" attempt=2`)
	assert.Contains(t, out, `level=WARN msg="slow export"`)
	assert.Contains(t, out, "level=INFO msg=ready")
	assert.Contains(t, out, "level=DEBUG msg=details")

	assert.NotPanics(t, func() { DefaultEventHandler(nil)(Event{Message: "dropped"}) })
}
