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

package accesslog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/middleware/requestid"
	"rivaas.dev/dispatch/telemetry/semconv"
)

func newLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func entries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()

	var out []map[string]any
	sc := bufio.NewScanner(buf)
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func handler(status int, body string, delay time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestNew_LogsRequest(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := New(WithLogger(newLogger(&buf)))(handler(http.StatusCreated, "hello", 0))

	req := httptest.NewRequest(http.MethodPost, "/api/widgets/7", nil)
	req.Header.Set("User-Agent", "test-agent")
	req.RemoteAddr = "10.0.0.1:4321"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	got := entries(t, &buf)
	require.Len(t, got, 1)
	e := got[0]
	assert.Equal(t, Message, e["msg"])
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, http.MethodPost, e[semconv.HTTPMethod])
	assert.Equal(t, "/api/widgets/7", e[semconv.HTTPTarget])
	assert.InDelta(t, http.StatusCreated, e[semconv.HTTPStatusCode], 0)
	assert.InDelta(t, 5, e[semconv.HTTPResponseSize], 0)
	assert.Equal(t, "test-agent", e[semconv.HTTPUserAgent])
	assert.Equal(t, "10.0.0.1", e[semconv.NetworkClientIP])
	assert.NotContains(t, e, "slow")
}

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		delay     time.Duration
		wantLevel string
		wantSlow  bool
	}{
		{name: "success", status: http.StatusOK, wantLevel: "INFO"},
		{name: "client error", status: http.StatusNotFound, wantLevel: "WARN"},
		{name: "server error", status: http.StatusBadGateway, wantLevel: "ERROR"},
		{name: "slow success", status: http.StatusOK, delay: 20 * time.Millisecond, wantLevel: "WARN", wantSlow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			h := New(
				WithLogger(newLogger(&buf)),
				WithSlowThreshold(10*time.Millisecond),
			)(handler(tt.status, "", tt.delay))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			got := entries(t, &buf)
			require.Len(t, got, 1)
			assert.Equal(t, tt.wantLevel, got[0]["level"])
			if tt.wantSlow {
				assert.Equal(t, true, got[0]["slow"])
			}
		})
	}
}

func TestNew_Filtering(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		opts   []Option
		path   string
		status int
		want   int
	}{
		{name: "excluded path", opts: []Option{WithExcludePaths("/health")}, path: "/health", status: http.StatusOK},
		{name: "excluded path is exact", opts: []Option{WithExcludePaths("/health")}, path: "/healthz", status: http.StatusOK, want: 1},
		{name: "excluded prefix", opts: []Option{WithExcludePrefixes("/static/")}, path: "/static/app.js", status: http.StatusOK},
		{name: "errors only skips success", opts: []Option{WithErrorsOnly()}, path: "/", status: http.StatusOK},
		{name: "errors only keeps failure", opts: []Option{WithErrorsOnly()}, path: "/", status: http.StatusInternalServerError, want: 1},
		{name: "zero sample rate skips success", opts: []Option{WithSampleRate(0)}, path: "/", status: http.StatusOK},
		{name: "zero sample rate keeps failure", opts: []Option{WithSampleRate(0)}, path: "/", status: http.StatusBadRequest, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			opts := append([]Option{
				WithLogger(newLogger(&buf)),
				WithRequestIDFunc(func(*http.Request) string { return "fixed-id" }),
			}, tt.opts...)
			h := New(opts...)(handler(tt.status, "", 0))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Len(t, entries(t, &buf), tt.want)
		})
	}
}

func TestNew_RequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := requestid.New(requestid.WithGenerator(func() string { return "req-42" }))(
		New(WithLogger(newLogger(&buf)))(handler(http.StatusOK, "", 0)),
	)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	got := entries(t, &buf)
	require.Len(t, got, 1)
	assert.Equal(t, "req-42", got[0][semconv.RequestID])
}

func TestNew_NoLoggerPassesThrough(t *testing.T) {
	t.Parallel()

	next := handler(http.StatusTeapot, "", 0)
	h := New()(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestSampleByHash(t *testing.T) {
	t.Parallel()

	assert.True(t, sampleByHash("", 0))
	assert.True(t, sampleByHash("abc", 1))
	assert.False(t, sampleByHash("abc", 0))

	// The decision is stable for a given ID.
	first := sampleByHash("stable-id", 0.5)
	for range 10 {
		assert.Equal(t, first, sampleByHash("stable-id", 0.5))
	}

	kept := 0
	for i := range 2000 {
		if sampleByHash(string(rune('a'+i%26))+time.Duration(i).String(), 0.5) {
			kept++
		}
	}
	assert.InDelta(t, 1000, kept, 200)
}

func TestResponseWriter_DefaultsTo200(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	assert.Equal(t, http.StatusOK, rw.StatusCode())

	_, err := rw.Write([]byte("abc"))
	require.NoError(t, err)
	rw.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusOK, rw.StatusCode())
	assert.EqualValues(t, 3, rw.Size())
}

func TestResponseWriter_HijackUnsupported(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.Error(t, err)
	assert.Same(t, rw.ResponseWriter, rw.Unwrap())
}
