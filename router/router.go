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

package router

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	rerrors "rivaas.dev/dispatch/errors"
)

// noopLogger is a singleton no-op logger used when no logger is configured.
var noopLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NoopLogger returns the singleton no-op logger.
func NoopLogger() *slog.Logger {
	return noopLogger
}

// Dispatcher resolves request paths to controllers through a root
// [RouteSet].
//
// Routes are registered at configuration time. The first call to
// [Dispatcher.Resolve], [Dispatcher.ServeHTTP], [Dispatcher.Routes] or
// [Dispatcher.Freeze] sorts the root set and freezes it; registration after
// that fails with [ErrFrozen].
//
// The Dispatcher is safe for concurrent use once frozen.
//
// Example:
//
//	d := router.MustNew()
//	d.Handle("/health$", router.ControllerType("health", newHealth))
//	d.HandleModule("/admin/", adminModule)
//	http.ListenAndServe(":8080", d)
type Dispatcher struct {
	routes     *RouteSet    // Root rule set, read-only once frozen
	mu         sync.Mutex   // Protects routes during registration
	frozen     atomic.Bool  // Set once the root set is sorted
	freezeOnce sync.Once    // Ensures the root set is sorted exactly once
	logger     *slog.Logger // Structured logger (never nil)

	recorders   []Recorder        // Observability hooks
	diagnostics DiagnosticHandler // Optional diagnostic event handler
	formatter   rerrors.Formatter // Error response formatter for ServeHTTP
}

// RouteInfo describes one rule in the route table.
type RouteInfo struct {
	Path   string // Pattern as registered
	Kind   Kind   // Rule kind
	Target string // Target type name
	Exact  bool   // Exact rather than prefix matching
	Depth  int    // Module nesting depth, 0 for root rules
}

// New creates a dispatcher with the given options.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		routes: NewRouteSet(),
		logger: noopLogger,
	}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.validate(); err != nil {
		return nil, fmt.Errorf("invalid dispatcher configuration: %w", err)
	}
	if d.formatter == nil {
		d.formatter = &rerrors.RFC9457{}
	}

	return d, nil
}

// MustNew creates a dispatcher or panics on invalid options.
func MustNew(opts ...Option) *Dispatcher {
	d, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dispatcher) validate() error {
	if d.logger == nil {
		return ErrNilLogger
	}
	return nil
}

// Formatter returns the error formatter used by ServeHTTP.
func (d *Dispatcher) Formatter() rerrors.Formatter {
	return d.formatter
}

// Handle registers target at path, selecting the rule kind from the
// capabilities target declares.
func (d *Dispatcher) Handle(path string, target *Type) error {
	return d.register(func(s *RouteSet) error { return s.Handle(path, target) })
}

// HandleAs registers target at path using the rule kind for want.
func (d *Dispatcher) HandleAs(path string, target *Type, want Capability) error {
	return d.register(func(s *RouteSet) error { return s.HandleAs(path, target, want) })
}

// HandleFunc registers a controller constructor at path.
func (d *Dispatcher) HandleFunc(path string, fn func() Controller) error {
	return d.register(func(s *RouteSet) error { return s.HandleFunc(path, fn) })
}

// HandleFactory registers a shared controller factory at path.
func (d *Dispatcher) HandleFactory(path string, f ControllerFactory) error {
	return d.register(func(s *RouteSet) error { return s.HandleFactory(path, f) })
}

// HandleModule registers a route module at path.
func (d *Dispatcher) HandleModule(path string, m RouteModule) error {
	return d.register(func(s *RouteSet) error { return s.HandleModule(path, m) })
}

// Add registers a prebuilt rule. Rules not built by [NewRule] are rejected
// with a *[ConfigError].
func (d *Dispatcher) Add(r *Rule) error {
	if r == nil {
		return &ConfigError{Err: ErrNilTarget}
	}
	if err := r.validate(); err != nil {
		return err
	}
	return d.register(func(s *RouteSet) error {
		s.Add(r)
		return nil
	})
}

// register runs fn against the root set unless it is frozen and reports
// the rules fn added.
func (d *Dispatcher) register(fn func(*RouteSet) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.frozen.Load() {
		return &ConfigError{Err: ErrFrozen}
	}

	before := d.routes.Len()
	if err := fn(d.routes); err != nil {
		d.logger.Error("route registration failed", "error", err)
		return err
	}

	for _, r := range d.routes.rules[before:] {
		d.logger.Debug("route registered", "rule", r.String())
		d.emit(DiagRuleRegistered, "route registered", map[string]any{
			"path":   r.path,
			"kind":   r.kind.String(),
			"target": r.target.String(),
			"exact":  r.exact,
		})
	}
	return nil
}

// Freeze sorts the root route set and rejects further registration.
// It is safe to call more than once.
func (d *Dispatcher) Freeze() {
	d.freezeOnce.Do(func() {
		d.mu.Lock()
		d.routes.Sort()
		d.frozen.Store(true)
		n := d.routes.Len()
		d.mu.Unlock()

		d.logger.Info("routes frozen", "rules", n)
		d.emit(DiagRoutesFrozen, "routes frozen", map[string]any{"rules": n})
	})
}

// Frozen reports whether the dispatcher stopped accepting registrations.
func (d *Dispatcher) Frozen() bool {
	return d.frozen.Load()
}

// Resolve resolves path against the root route set.
//
// Any query component ("?...") is dropped before matching. The returned
// [DispatchContext] records the frames entered during resolution. A nil
// controller with a nil error means no rule matched. ctx carries request
// scoped values for recorders; resolution itself is synchronous and is not
// cancelled by ctx.
func (d *Dispatcher) Resolve(ctx context.Context, path string) (*DispatchContext, Controller, error) {
	d.Freeze()

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dc := NewDispatchContext(path)
	dc.diag = d.diagnostics

	states := make([]any, len(d.recorders))
	for i, rec := range d.recorders {
		ctx, states[i] = rec.OnResolveStart(ctx, path)
	}
	start := time.Now()

	var (
		c    Controller
		err  error
		done bool
	)
	defer func() {
		resErr := err
		if !done {
			resErr = ErrResolvePanicked
		}
		info := newResolveInfo(dc, c, resErr, time.Since(start))
		for i, rec := range d.recorders {
			if states[i] != nil {
				rec.OnResolveEnd(ctx, states[i], info)
			}
		}
		d.logResolve(ctx, dc, info)
	}()

	c, err = dc.ResolveAgainst(d.routes)
	done = true
	return dc, c, err
}

// logResolve writes one log line per resolution.
func (d *Dispatcher) logResolve(ctx context.Context, dc *DispatchContext, info ResolveInfo) {
	level := slog.LevelDebug
	if info.Outcome == OutcomeError {
		level = slog.LevelError
	}
	if !d.logger.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("dispatch_id", dc.id),
		slog.String("path", info.Path),
		slog.String("outcome", string(info.Outcome)),
		slog.Int("frames", info.Frames),
		slog.Int("retracted", info.Retracted),
		slog.Duration("duration", info.Duration),
	}
	if info.Rule != "" {
		attrs = append(attrs, slog.String("rule", info.Rule), slog.String("kind", info.Kind.String()))
	}
	if info.Err != nil {
		attrs = append(attrs, slog.Any("error", info.Err))
	}
	d.logger.LogAttrs(ctx, level, "path resolved", attrs...)
}

// ServeHTTP resolves the request path and serves the request with the
// resolved controller.
//
// The controller must implement [http.Handler]; it receives the request with
// the [DispatchContext] available through [FromContext]. Unmatched paths and
// resolution failures are written with the configured error formatter.
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	dc, c, err := d.Resolve(req.Context(), req.URL.Path)
	if err != nil {
		d.writeError(w, req, err)
		return
	}
	if c == nil {
		d.writeError(w, req, &NoRouteError{Path: dc.Path()})
		return
	}

	h, ok := c.(http.Handler)
	if !ok {
		d.writeError(w, req, &notHandlerError{controller: fmt.Sprintf("%T", c)})
		return
	}
	h.ServeHTTP(w, req.WithContext(WithContext(req.Context(), dc)))
}

func (d *Dispatcher) writeError(w http.ResponseWriter, req *http.Request, err error) {
	if werr := rerrors.Write(w, d.formatter.Format(req, err)); werr != nil {
		d.logger.Warn("failed to write error response", "error", werr)
	}
}

// Routes returns the route table in resolution order. Module rules are
// followed into their nested route sets, which loads any module not yet
// loaded.
func (d *Dispatcher) Routes() ([]RouteInfo, error) {
	d.Freeze()

	var infos []RouteInfo
	var walk func(set *RouteSet, depth int) error
	walk = func(set *RouteSet, depth int) error {
		for r := range set.Rules() {
			infos = append(infos, RouteInfo{
				Path:   r.path,
				Kind:   r.kind,
				Target: r.target.String(),
				Exact:  r.exact,
				Depth:  depth,
			})
			if r.kind != KindModule {
				continue
			}
			nested, err := r.Routes()
			if err != nil {
				return err
			}
			if err := walk(nested, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(d.routes, 0); err != nil {
		return nil, err
	}
	return infos, nil
}

func (d *Dispatcher) emit(kind DiagnosticKind, msg string, fields map[string]any) {
	if d.diagnostics == nil {
		return
	}
	d.diagnostics.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
}
