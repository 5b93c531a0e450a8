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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

func TestMiddleware_RequestSpan(t *testing.T) {
	t.Parallel()

	mw, spans := TestingMiddleware(t)
	handler := mw(statusHandler(http.StatusCreated))

	req := httptest.NewRequest(http.MethodPost, "/widgets/7", nil)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	ended := endedNamed(spans, "POST /widgets/7")
	require.Len(t, ended, 1)
	span := ended[0]
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, codes.Unset, span.Status().Code)

	attrs := attrsOf(span)
	assert.Equal(t, "POST", attrs["http.method"].AsString())
	assert.Equal(t, "/widgets/7", attrs["http.target"].AsString())
	assert.Equal(t, "test-agent", attrs["http.user_agent"].AsString())
	assert.Equal(t, "test-service", attrs["service.name"].AsString())
	assert.Equal(t, int64(http.StatusCreated), attrs["http.status_code"].AsInt64())
}

func TestMiddleware_StatusCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		handler    http.Handler
		wantCode   int64
		wantStatus codes.Code
	}{
		{name: "implicit ok", handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}), wantCode: 200, wantStatus: codes.Unset},
		{name: "not found", handler: statusHandler(http.StatusNotFound), wantCode: 404, wantStatus: codes.Unset},
		{name: "server error", handler: statusHandler(http.StatusServiceUnavailable), wantCode: 503, wantStatus: codes.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw, spans := TestingMiddleware(t)
			mw(tt.handler).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

			ended := endedNamed(spans, "GET /x")
			require.Len(t, ended, 1)
			assert.Equal(t, tt.wantCode, attrsOf(ended[0])["http.status_code"].AsInt64())
			assert.Equal(t, tt.wantStatus, ended[0].Status().Code)
		})
	}
}

func TestMiddleware_ExcludedPaths(t *testing.T) {
	t.Parallel()

	mw, spans := TestingMiddleware(t,
		WithExcludePaths("/metrics"),
		WithExcludePrefixes("/debug/"),
		WithExcludePatterns(`^/v[0-9]+/internal`),
	)
	handler := mw(statusHandler(http.StatusOK))

	for _, path := range []string{"/metrics", "/debug/pprof", "/v2/internal/state", "/traced"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /traced", ended[0].Name())
}

func TestMiddleware_InvalidPatternPanics(t *testing.T) {
	t.Parallel()

	tracer, _ := TestingTracer(t)
	assert.Panics(t, func() {
		Middleware(tracer, WithExcludePatterns("[invalid"))
	})
}

func TestMiddleware_Headers(t *testing.T) {
	t.Parallel()

	mw, spans := TestingMiddleware(t, WithHeaders("X-Request-ID", "Authorization"))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	req.Header.Set("Authorization", "Bearer secret")
	mw(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(), req)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	attrs := attrsOf(ended[0])
	assert.Equal(t, "req-42", attrs["http.request.header.x-request-id"].AsString())
	assert.NotContains(t, attrs, attribute.Key("http.request.header.authorization"))
}

func TestMiddleware_Params(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []MiddlewareOption
		want []string
		skip []string
	}{
		{
			name: "all by default",
			want: []string{"page", "token"},
		},
		{
			name: "whitelist",
			opts: []MiddlewareOption{WithRecordParams("page")},
			want: []string{"page"},
			skip: []string{"token"},
		},
		{
			name: "blacklist",
			opts: []MiddlewareOption{WithExcludeParams("token")},
			want: []string{"page"},
			skip: []string{"token"},
		},
		{
			name: "disabled",
			opts: []MiddlewareOption{WithoutParams()},
			skip: []string{"page", "token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mw, spans := TestingMiddleware(t, tt.opts...)
			mw(statusHandler(http.StatusOK)).ServeHTTP(httptest.NewRecorder(),
				httptest.NewRequest(http.MethodGet, "/x?page=2&token=abc", nil))

			ended := spans.Ended()
			require.Len(t, ended, 1)
			attrs := attrsOf(ended[0])
			for _, p := range tt.want {
				assert.Contains(t, attrs, attribute.Key(attrPrefixParam+p))
			}
			for _, p := range tt.skip {
				assert.NotContains(t, attrs, attribute.Key(attrPrefixParam+p))
			}
		})
	}
}

func TestMiddleware_ExtractsIncomingTrace(t *testing.T) {
	t.Parallel()

	mw, spans := TestingMiddleware(t)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	var innerTraceID string
	mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		innerTraceID = TraceID(r.Context())
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", innerTraceID)

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "00f067aa0ba902b7", ended[0].Parent().SpanID().String())
	assert.True(t, ended[0].Parent().IsRemote())
}

func TestMiddleware_NestsResolveSpan(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	d := newDispatcher(t, tracer)

	rec := httptest.NewRecorder()
	Middleware(tracer)(d).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	requests := endedNamed(spans, "GET /health")
	resolves := endedNamed(spans, ResolveSpanName)
	require.Len(t, requests, 1)
	require.Len(t, resolves, 1)
	assert.Equal(t, requests[0].SpanContext().SpanID(), resolves[0].Parent().SpanID())
}

func TestMiddleware_DisabledTracerPassesThrough(t *testing.T) {
	t.Parallel()

	tracer, spans := TestingTracer(t)
	require.NoError(t, tracer.Shutdown(context.Background()))

	rec := httptest.NewRecorder()
	Middleware(tracer)(statusHandler(http.StatusAccepted)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Empty(t, spans.Ended())
}

func TestMiddleware_SpanHooks(t *testing.T) {
	t.Parallel()

	var started, finished int
	tracer, _ := TestingTracer(t,
		WithSpanStartHook(func(_ context.Context, span trace.Span, req *http.Request) {
			started++
			span.SetAttributes(attribute.String("tenant", req.Header.Get("X-Tenant")))
		}),
		WithSpanFinishHook(func(_ trace.Span, code int) {
			finished = code
		}),
	)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Tenant", "acme")
	Middleware(tracer)(statusHandler(http.StatusTeapot)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1, started)
	assert.Equal(t, http.StatusTeapot, finished)
}

func TestResponseWriter(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	assert.Equal(t, http.StatusOK, rw.StatusCode())

	rw.WriteHeader(http.StatusBadRequest)
	rw.WriteHeader(http.StatusOK)
	n, err := rw.Write([]byte("bad"))
	require.NoError(t, err)

	assert.Equal(t, 3, n)
	assert.Equal(t, 3, rw.Size())
	assert.Equal(t, http.StatusBadRequest, rw.StatusCode())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Same(t, rec, rw.Unwrap())

	rw.Flush()
	assert.True(t, rec.Flushed)

	_, _, err = rw.Hijack()
	assert.Error(t, err)
}
