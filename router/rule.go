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
	"fmt"
	"strings"

	"rivaas.dev/dispatch/router/internal/lazy"
)

// Kind identifies how a rule resolves a matched path.
type Kind uint8

const (
	// KindDirect rules construct a controller from the target type.
	KindDirect Kind = iota + 1
	// KindFactory rules ask a shared [ControllerFactory] for a controller.
	KindFactory
	// KindModule rules resolve against a nested [RouteSet].
	KindModule
)

// String returns the kind name used in route tables and metrics.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindFactory:
		return "factory"
	case KindModule:
		return "module"
	default:
		return "unknown"
	}
}

// exactSuffix marks a pattern as an exact match. A doubled suffix is the
// escape for a literal "$" and keeps prefix matching.
const exactSuffix = "$"

// Rule is one entry of a [RouteSet]: a path pattern bound to a target type.
//
// A pattern ending in a single "$" matches exactly the path before it
// (the query component is never part of the path). Any other pattern
// matches every path that starts with it. Both comparisons ignore ASCII
// case. A pattern ending in "$$" is a prefix pattern; both characters are
// kept in the stored pattern.
//
// Rules are immutable after construction apart from the factory and module
// state, which is built once on first use and is safe for concurrent access.
type Rule struct {
	path   string
	exact  bool
	kind   Kind
	target *Type

	// KindFactory
	newFactory func() ControllerFactory
	factory    lazy.Value[ControllerFactory]

	// KindModule
	module lazy.Value[*moduleRoutes]
}

// moduleRoutes is the lazily built state of a module rule.
type moduleRoutes struct {
	module RouteModule
	routes *RouteSet
}

func newRule(kind Kind, path string, target *Type) *Rule {
	return &Rule{
		path:   path,
		exact:  strings.HasSuffix(path, exactSuffix) && !strings.HasSuffix(path, exactSuffix+exactSuffix),
		kind:   kind,
		target: target,
	}
}

// Path returns the pattern as registered, including any "$" suffix.
func (r *Rule) Path() string { return r.path }

// Exact reports whether the rule matches exactly rather than by prefix.
func (r *Rule) Exact() bool { return r.exact }

// Kind returns the rule kind.
func (r *Rule) Kind() Kind { return r.kind }

// Target returns the target type.
func (r *Rule) Target() *Type { return r.target }

// validate reports a rule that was not built by [NewRule].
func (r *Rule) validate() error {
	switch {
	case r.path == "":
		return &ConfigError{Target: r.target.String(), Err: ErrEmptyPath}
	case r.target == nil:
		return &ConfigError{Path: r.path, Err: ErrNilTarget}
	case r.kind < KindDirect || r.kind > KindModule:
		return &ConfigError{Path: r.path, Target: r.target.String(), Err: ErrNoCapability,
			Detail: fmt.Sprintf("invalid rule kind %d", r.kind)}
	}
	return nil
}

// TryMatch matches path against the rule pattern and returns the matched
// fragment.
//
// Exact patterns match when path is one character shorter than the stored
// pattern and the stored pattern starts with path; the fragment is path.
// Prefix patterns match when path starts with the pattern; the fragment is
// the leading len(pattern) bytes of path.
func (r *Rule) TryMatch(path string) (string, bool) {
	if r.exact {
		if len(r.path)-1 == len(path) && hasPrefixFold(r.path, path) {
			return path, true
		}
		return "", false
	}

	if hasPrefixFold(path, r.path) {
		return path[:len(r.path)], true
	}
	return "", false
}

// hasPrefixFold reports whether s begins with prefix, ignoring ASCII case.
// Bytes outside A-Z and a-z must be equal.
func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	for i := range len(prefix) {
		if lowerASCII(s[i]) != lowerASCII(prefix[i]) {
			return false
		}
	}
	return true
}

func lowerASCII(b byte) byte {
	if 'A' <= b && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// Resolve tries to resolve dc's path through this rule.
// A nil controller with a nil error means the rule did not match and the
// next rule should be tried.
func (r *Rule) Resolve(dc *DispatchContext) (Controller, error) {
	switch r.kind {
	case KindFactory:
		return r.resolveFactory(dc)
	case KindModule:
		return r.resolveModule(dc)
	default:
		return r.resolveDirect(dc)
	}
}

// resolveDirect instantiates the target as a controller. An unusable
// instance is not an error; later rules still get their turn.
func (r *Rule) resolveDirect(dc *DispatchContext) (Controller, error) {
	match, ok := r.TryMatch(dc.path)
	if !ok || r.target.NewController == nil {
		return nil, nil
	}

	c := r.target.NewController()
	if c == nil {
		return nil, nil
	}
	dc.enter(FrameController, match, r, c)
	return c, nil
}

// resolveFactory enters the factory frame, asks the factory for a
// controller and then either enters the controller or retracts the factory
// frame. The retraction runs even when the factory returns an error or panics.
func (r *Rule) resolveFactory(dc *DispatchContext) (Controller, error) {
	match, ok := r.TryMatch(dc.path)
	if !ok {
		return nil, nil
	}

	f, err := r.Factory()
	if err != nil {
		return nil, err
	}

	dc.enter(FrameFactory, match, r, f)

	var c Controller
	defer func() {
		if c != nil {
			dc.enter(FrameController, match, r, c)
		} else {
			dc.exit(FrameFactory, r)
		}
	}()

	ctrl, err := f.Controller(dc)
	if err != nil {
		return nil, fmt.Errorf("factory %s: %w", r.target, err)
	}
	c = ctrl
	return c, nil
}

// resolveModule enters the module frame and resolves against the nested
// route set. Nested rules record their own frames; this rule only retracts
// the module frame when nothing was produced.
func (r *Rule) resolveModule(dc *DispatchContext) (Controller, error) {
	match, ok := r.TryMatch(dc.path)
	if !ok {
		return nil, nil
	}

	m, err := r.loadModule(dc)
	if err != nil {
		return nil, err
	}

	dc.enter(FrameModule, match, r, m.module)

	var c Controller
	defer func() {
		if c == nil {
			dc.exit(FrameModule, r)
		}
	}()

	c, err = dc.ResolveAgainst(m.routes)
	return c, err
}

// Factory returns the rule's controller factory, building it on first use.
// The factory comes from the function passed to [Rule.SetFactoryFunc] when
// set, and from the target's NewFactory constructor otherwise.
func (r *Rule) Factory() (ControllerFactory, error) {
	return r.factory.Get(func() (ControllerFactory, error) {
		var f ControllerFactory
		switch {
		case r.newFactory != nil:
			f = r.newFactory()
		case r.target.NewFactory != nil:
			f = r.target.NewFactory()
		}
		if f == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilFactory, r.target)
		}
		return f, nil
	})
}

// SetFactoryFunc sets the constructor used to build the factory on first
// use. It must be called before the rule resolves any request.
func (r *Rule) SetFactoryFunc(fn func() ControllerFactory) {
	r.newFactory = fn
}

// SetFactory replaces the rule's factory.
func (r *Rule) SetFactory(f ControllerFactory) {
	r.factory.Set(f)
}

// Module returns the module of a module rule, loading it on first use.
func (r *Rule) Module() (RouteModule, error) {
	m, err := r.loadModule(nil)
	if err != nil {
		return nil, err
	}
	return m.module, nil
}

// Routes returns the nested route set of a module rule, loading it on first use.
func (r *Rule) Routes() (*RouteSet, error) {
	m, err := r.loadModule(nil)
	if err != nil {
		return nil, err
	}
	return m.routes, nil
}

// SetModule replaces the module and its nested route set. routes is sorted
// before it is installed; a nil routes installs an empty set.
func (r *Rule) SetModule(module RouteModule, routes *RouteSet) {
	if routes == nil {
		routes = NewRouteSet()
	}
	routes.Sort()
	r.module.Set(&moduleRoutes{module: module, routes: routes})
}

// loadModule builds the module state at most once: the module's routes are
// loaded into a fresh set which is then sorted. dc, when non-nil, receives a
// diagnostic event for the load.
func (r *Rule) loadModule(dc *DispatchContext) (*moduleRoutes, error) {
	return r.module.Get(func() (*moduleRoutes, error) {
		set := NewRouteSet()
		m, err := set.Load(r.target)
		if err != nil {
			return nil, err
		}
		set.Sort()

		if dc != nil {
			dc.emit(DiagModuleLoaded, "route module loaded", map[string]any{
				"path":   r.path,
				"module": r.target.String(),
				"routes": set.Len(),
			})
		}
		return &moduleRoutes{module: m, routes: set}, nil
	})
}

// String returns "{kind path -> target}". Factory and module rules show
// their factory or module once it has been built.
func (r *Rule) String() string {
	var dest string
	switch r.kind {
	case KindFactory:
		if f, ok := r.factory.Load(); ok {
			dest = fmt.Sprintf("%T", f)
		} else {
			dest = "no factory"
		}
	case KindModule:
		if m, ok := r.module.Load(); ok {
			dest = fmt.Sprintf("%T", m.module)
		} else {
			dest = "no module"
		}
	default:
		dest = r.target.String()
	}
	return fmt.Sprintf("{%s %s -> %s}", r.kind, r.path, dest)
}
