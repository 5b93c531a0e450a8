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

package accesslog

import (
	"bufio"
	"context"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"rivaas.dev/dispatch/middleware/requestid"
	"rivaas.dev/dispatch/telemetry/semconv"
)

// Message is the log message of every entry.
const Message = "http request"

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger        *slog.Logger
	excludePaths  map[string]struct{}
	excludePrefix []string
	slowThreshold time.Duration
	errorsOnly    bool
	sampleRate    float64
	requestID     func(*http.Request) string
}

func defaultConfig() *config {
	return &config{
		excludePaths: make(map[string]struct{}),
		sampleRate:   1,
		requestID:    func(r *http.Request) string { return requestid.Get(r.Context()) },
	}
}

// WithLogger sets the logger. Without one the middleware is a no-op.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithExcludePaths skips requests whose path equals one of paths.
func WithExcludePaths(paths ...string) Option {
	return func(c *config) {
		for _, p := range paths {
			c.excludePaths[p] = struct{}{}
		}
	}
}

// WithExcludePrefixes skips requests whose path starts with one of prefixes.
func WithExcludePrefixes(prefixes ...string) Option {
	return func(c *config) {
		c.excludePrefix = append(c.excludePrefix, prefixes...)
	}
}

// WithSlowThreshold logs requests taking at least d at warn level with
// slow=true. Zero disables the check.
func WithSlowThreshold(d time.Duration) Option {
	return func(c *config) {
		c.slowThreshold = d
	}
}

// WithErrorsOnly logs only requests with status >= 400 or slow requests.
func WithErrorsOnly() Option {
	return func(c *config) {
		c.errorsOnly = true
	}
}

// WithSampleRate keeps the given fraction of successful requests, clamped
// to [0, 1].
func WithSampleRate(rate float64) Option {
	return func(c *config) {
		c.sampleRate = math.Max(0, math.Min(1, rate))
	}
}

// WithRequestIDFunc sets how the request ID is read. Default: the ID
// stored by the requestid middleware.
func WithRequestIDFunc(fn func(*http.Request) string) Option {
	return func(c *config) {
		c.requestID = fn
	}
}

// New returns the access log middleware.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		if cfg.logger == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.excluded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w}
			next.ServeHTTP(rw, r)
			cfg.log(r, rw, time.Since(start))
		})
	}
}

func (c *config) excluded(path string) bool {
	if _, ok := c.excludePaths[path]; ok {
		return true
	}
	for _, p := range c.excludePrefix {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func (c *config) log(r *http.Request, rw *responseWriter, d time.Duration) {
	status := rw.StatusCode()
	slow := c.slowThreshold > 0 && d >= c.slowThreshold
	failed := status >= http.StatusBadRequest
	id := c.requestID(r)

	if !failed && !slow {
		if c.errorsOnly || !sampleByHash(id, c.sampleRate) {
			return
		}
	}

	level := slog.LevelInfo
	switch {
	case status >= http.StatusInternalServerError:
		level = slog.LevelError
	case failed, slow:
		level = slog.LevelWarn
	}

	ctx := r.Context()
	if !c.logger.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String(semconv.HTTPMethod, r.Method),
		slog.String(semconv.HTTPTarget, r.URL.Path),
		slog.Int(semconv.HTTPStatusCode, status),
		slog.Int64(semconv.HTTPResponseSize, rw.Size()),
		slog.Duration(semconv.HTTPDuration, d),
		slog.String(semconv.HTTPHost, r.Host),
		slog.String(semconv.HTTPFlavor, r.Proto),
		slog.String(semconv.NetworkClientIP, clientIP(r)),
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, slog.String(semconv.HTTPUserAgent, ua))
	}
	if id != "" {
		attrs = append(attrs, slog.String(semconv.RequestID, id))
	}
	if slow {
		attrs = append(attrs, slog.Bool("slow", true))
	}
	c.logger.LogAttrs(context.WithoutCancel(ctx), level, Message, attrs...)
}

// sampleByHash keeps a request when the hash of id falls below rate.
// Requests without an ID are always kept.
func sampleByHash(id string, rate float64) bool {
	if id == "" || rate >= 1 {
		return true
	}
	if rate <= 0 {
		return false
	}
	return float64(xxhash.Sum64String(id))/math.MaxUint64 < rate
}

// clientIP returns the host part of RemoteAddr. Proxy headers are applied
// upstream (chi's RealIP rewrites RemoteAddr).
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// responseWriter records the status and body size.
type responseWriter struct {
	http.ResponseWriter
	status      int
	size        int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.size += int64(n)
	return n, err
}

// StatusCode returns the written status, 200 if none was written.
func (rw *responseWriter) StatusCode() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// Size returns the number of body bytes written.
func (rw *responseWriter) Size() int64 {
	return rw.size
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack hands the connection to a WebSocket upgrader. The request is
// logged with status 101.
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("accesslog: underlying ResponseWriter does not implement http.Hijacker")
	}
	if !rw.wroteHeader {
		rw.status = http.StatusSwitchingProtocols
		rw.wroteHeader = true
	}
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
