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

package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	rerrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/middleware/requestid"
	"rivaas.dev/dispatch/telemetry/semconv"
)

const defaultStackSize = 4 << 10

// PanicError carries a recovered panic value to the error formatter.
type PanicError struct {
	Value any
}

// Error returns a generic message; the panic value is not exposed to clients.
func (e *PanicError) Error() string {
	return "internal server error"
}

// HTTPStatus returns 500.
func (e *PanicError) HTTPStatus() int {
	return http.StatusInternalServerError
}

// Code returns a machine-readable error code.
func (e *PanicError) Code() string {
	return "internal_error"
}

// Option configures the middleware.
type Option func(*config)

type config struct {
	logger     *slog.Logger
	stackTrace bool
	stackSize  int
	formatter  rerrors.Formatter
	handler    func(w http.ResponseWriter, r *http.Request, v any)
}

func defaultConfig() *config {
	return &config{
		logger:     slog.Default(),
		stackTrace: true,
		stackSize:  defaultStackSize,
		formatter:  rerrors.NewRFC9457(""),
	}
}

// WithoutLogging disables panic logging.
func WithoutLogging() Option {
	return func(c *config) {
		c.logger = nil
	}
}

// WithLogger sets the logger for recovered panics. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithStackTrace enables or disables stack capture. Default: true.
func WithStackTrace(enabled bool) Option {
	return func(c *config) {
		c.stackTrace = enabled
	}
}

// WithStackSize sets the maximum stack size in bytes. Default: 4KB.
func WithStackSize(size int) Option {
	return func(c *config) {
		if size > 0 {
			c.stackSize = size
		}
	}
}

// WithFormatter sets the formatter for the default 500 response.
func WithFormatter(f rerrors.Formatter) Option {
	return func(c *config) {
		if f != nil {
			c.formatter = f
		}
	}
}

// WithHandler replaces the default response with a custom one.
//
// Example:
//
//	recovery.New(recovery.WithHandler(func(w http.ResponseWriter, r *http.Request, v any) {
//	    http.Error(w, "oops", http.StatusInternalServerError)
//	}))
func WithHandler(fn func(w http.ResponseWriter, r *http.Request, v any)) Option {
	return func(c *config) {
		c.handler = fn
	}
}

// New returns the recovery middleware.
func New(opts ...Option) func(http.Handler) http.Handler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}
				cfg.recovered(w, r, v)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func (c *config) recovered(w http.ResponseWriter, r *http.Request, v any) {
	ctx := r.Context()

	var stack []byte
	if c.stackTrace {
		stack = make([]byte, c.stackSize)
		stack = stack[:runtime.Stack(stack, false)]
	}

	recordSpan(ctx, v, stack)
	c.log(ctx, r, v, stack)

	if c.handler != nil {
		c.handler(w, r, v)
		return
	}
	if err := rerrors.Write(w, c.formatter.Format(r, &PanicError{Value: v})); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "failed to write panic response", "error", err)
	}
}

func (c *config) log(ctx context.Context, r *http.Request, v any, stack []byte) {
	if c.logger == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("panic", fmt.Sprint(v)),
		slog.String(semconv.HTTPMethod, r.Method),
		slog.String(semconv.HTTPTarget, r.URL.Path),
	}
	if id := requestid.Get(ctx); id != "" {
		attrs = append(attrs, slog.String(semconv.RequestID, id))
	}
	if len(stack) > 0 {
		attrs = append(attrs, slog.String("stack", string(stack)))
	}
	c.logger.LogAttrs(context.WithoutCancel(ctx), slog.LevelError, "panic recovered", attrs...)
}

func recordSpan(ctx context.Context, v any, stack []byte) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	msg := fmt.Sprint(v)
	attrs := []attribute.KeyValue{
		attribute.String("exception.type", fmt.Sprintf("%T", v)),
		attribute.String("exception.message", msg),
		attribute.Bool("exception.escaped", true),
	}
	if len(stack) > 0 {
		attrs = append(attrs, attribute.String("exception.stacktrace", string(stack)))
	}
	span.AddEvent("exception", trace.WithAttributes(attrs...))
	span.SetStatus(codes.Error, "panic: "+msg)
}
