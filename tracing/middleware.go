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
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"regexp"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute key prefixes for recorded parameters and headers.
const (
	attrPrefixParam  = "http.request.param."
	attrPrefixHeader = "http.request.header."
)

// MiddlewareOption configures the tracing middleware.
// These options only affect HTTP middleware behavior.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	pathFilter       *pathFilter
	recordHeaders    []string
	recordHeadersLow []string        // Pre-lowercased for attribute keys
	recordParams     bool            // Whether to record URL params
	recordParamsList []string        // Whitelist of params to record (nil = all)
	excludeParams    map[string]bool // Blacklist of params to exclude
	validationErrors []error
}

func newMiddlewareConfig() *middlewareConfig {
	return &middlewareConfig{
		pathFilter:    newPathFilter(),
		recordParams:  true,
		excludeParams: make(map[string]bool),
	}
}

func (c *middlewareConfig) validate() error {
	if len(c.validationErrors) == 0 {
		return nil
	}
	return fmt.Errorf("middleware validation errors: %w", errors.Join(c.validationErrors...))
}

// MaxExcludedPaths is the maximum number of exact paths that can be excluded.
const MaxExcludedPaths = 1000

// WithExcludePaths excludes exact request paths from tracing, typically
// health checks and the metrics endpoint. Paths beyond [MaxExcludedPaths]
// are ignored.
//
// Example:
//
//	handler := tracing.Middleware(tracer,
//	    tracing.WithExcludePaths("/health", "/metrics"),
//	)(mux)
func WithExcludePaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		if len(paths) > MaxExcludedPaths {
			paths = paths[:MaxExcludedPaths]
		}
		c.pathFilter.addPaths(paths...)
	}
}

// WithExcludePrefixes excludes every path under the given prefixes.
func WithExcludePrefixes(prefixes ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.pathFilter.addPrefixes(prefixes...)
	}
}

// WithExcludePatterns excludes paths matching the given regular
// expressions. An invalid pattern makes [Middleware] panic.
func WithExcludePatterns(patterns ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, pattern := range patterns {
			compiled, err := regexp.Compile(pattern)
			if err != nil {
				c.validationErrors = append(c.validationErrors,
					fmt.Errorf("excludePatterns: invalid regex %q: %w", pattern, err))
				continue
			}
			c.pathFilter.addPatterns(compiled)
		}
	}
}

// sensitiveHeaders contains header names that are never recorded.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
	"www-authenticate":    true,
}

// WithHeaders records request headers as 'http.request.header.{name}' span
// attributes. Sensitive headers such as Authorization are dropped.
func WithHeaders(headers ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.recordHeaders = c.recordHeaders[:0]
		c.recordHeadersLow = c.recordHeadersLow[:0]
		for _, h := range headers {
			low := strings.ToLower(h)
			if sensitiveHeaders[low] {
				continue
			}
			c.recordHeaders = append(c.recordHeaders, h)
			c.recordHeadersLow = append(c.recordHeadersLow, low)
		}
	}
}

// WithRecordParams records only the listed query parameters.
func WithRecordParams(params ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		if len(params) > 0 {
			c.recordParamsList = slices.Clone(params)
			c.recordParams = true
		}
	}
}

// WithExcludeParams never records the listed query parameters.
func WithExcludeParams(params ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		for _, param := range params {
			c.excludeParams[param] = true
		}
	}
}

// WithoutParams disables recording query parameters.
func WithoutParams() MiddlewareOption {
	return func(c *middlewareConfig) {
		c.recordParams = false
	}
}

// Middleware wraps an HTTP handler with a server span per request. The
// incoming trace context is extracted from the request headers, so the
// resolution span recorded by the dispatcher becomes a child of the request
// span.
//
// Panics if a middleware option is invalid.
//
// Example:
//
//	handler := tracing.Middleware(tracer,
//	    tracing.WithExcludePaths("/metrics"),
//	    tracing.WithHeaders("X-Request-ID"),
//	)(dispatcher)
func Middleware(tracer *Tracer, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := newMiddlewareConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		panic(fmt.Sprintf("tracing.Middleware: %v", err))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tracer.IsEnabled() || cfg.pathFilter.shouldExclude(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := startRequestSpan(tracer, cfg, r)
			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))
			tracer.finishRequestSpan(span, rw.StatusCode())
		})
	}
}

// startRequestSpan starts the server span for req.
func startRequestSpan(t *Tracer, cfg *middlewareConfig, req *http.Request) (context.Context, trace.Span) {
	ctx := t.ExtractTraceContext(req.Context(), req.Header)
	ctx, span := t.tracer.Start(ctx, req.Method+" "+req.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
	if !span.IsRecording() {
		return ctx, span
	}

	attrs := make([]attribute.KeyValue, 0, 6+len(cfg.recordHeaders))
	attrs = append(attrs,
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.String()),
		attribute.String("http.host", req.Host),
		attribute.String("http.target", req.URL.Path),
		attribute.String("http.user_agent", req.UserAgent()),
		attribute.String("service.name", t.serviceName),
	)

	if cfg.recordParams && req.URL.RawQuery != "" {
		for key, values := range req.URL.Query() {
			if len(values) > 0 && shouldRecordParam(cfg, key) {
				attrs = append(attrs, attribute.StringSlice(attrPrefixParam+key, values))
			}
		}
	}

	for i, header := range cfg.recordHeaders {
		if value := req.Header.Get(header); value != "" {
			attrs = append(attrs, attribute.String(attrPrefixHeader+cfg.recordHeadersLow[i], value))
		}
	}

	span.SetAttributes(attrs...)

	if t.spanStartHook != nil {
		t.spanStartHook(ctx, span, req)
	}
	return ctx, span
}

// finishRequestSpan records the status code and ends span.
func (t *Tracer) finishRequestSpan(span trace.Span, statusCode int) {
	if !span.IsRecording() {
		span.End()
		return
	}

	span.SetAttributes(attribute.Int("http.status_code", statusCode))
	if statusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", statusCode))
	}

	if t.spanFinishHook != nil {
		t.spanFinishHook(span, statusCode)
	}
	span.End()
}

func shouldRecordParam(cfg *middlewareConfig, param string) bool {
	if cfg.excludeParams[param] {
		return false
	}
	if cfg.recordParamsList != nil {
		return slices.Contains(cfg.recordParamsList, param)
	}
	return true
}

// responseWriter wraps http.ResponseWriter to capture status code and size.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(code int) {
	if !rw.written {
		rw.statusCode = code
		rw.ResponseWriter.WriteHeader(code)
		rw.written = true
	}
}

// Write captures the response size.
func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.written = true
	if rw.statusCode == 0 {
		rw.statusCode = http.StatusOK
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += n
	return n, err
}

// StatusCode returns the HTTP status code.
func (rw *responseWriter) StatusCode() int {
	if rw.statusCode == 0 {
		return http.StatusOK
	}
	return rw.statusCode
}

// Size returns the response size in bytes.
func (rw *responseWriter) Size() int {
	return rw.size
}

// Flush implements http.Flusher.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack implements http.Hijacker so websocket controllers can upgrade.
// A hijacked connection reports 101.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("underlying ResponseWriter doesn't support Hijack")
	}
	conn, buf, err := h.Hijack()
	if err == nil {
		rw.statusCode = http.StatusSwitchingProtocols
		rw.written = true
	}
	return conn, buf, err
}

// Unwrap returns the underlying ResponseWriter for http.ResponseController support.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
