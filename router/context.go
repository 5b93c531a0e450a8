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
	"slices"

	"github.com/google/uuid"
)

// FrameKind identifies what a [Frame] entered.
type FrameKind uint8

const (
	// FrameController records a resolved controller.
	FrameController FrameKind = iota + 1
	// FrameFactory records a factory asked for a controller.
	FrameFactory
	// FrameModule records a module whose routes were consulted.
	FrameModule
)

// String returns the frame kind name.
func (k FrameKind) String() string {
	switch k {
	case FrameController:
		return "controller"
	case FrameFactory:
		return "factory"
	case FrameModule:
		return "module"
	default:
		return "unknown"
	}
}

// Frame is one entry of the dispatch log.
type Frame struct {
	Kind     FrameKind
	Fragment string // Portion of the path matched by Rule
	Path     string // Full request path
	Rule     *Rule  // Rule that entered the frame
	Target   any    // Controller, ControllerFactory or RouteModule
	Exited   bool   // Set when the frame was retracted
}

// DispatchContext carries the state of a single resolution: the request
// path and the log of frames entered while walking the rule chain.
//
// Frames are appended as the chain is entered and are never removed; a
// factory or module that produces nothing marks its frame as exited.
// [DispatchContext.Active] returns the frames still in effect.
//
// A DispatchContext belongs to one request and is not safe for concurrent use.
type DispatchContext struct {
	id     string
	path   string
	frames []Frame
	diag   DiagnosticHandler
}

// NewDispatchContext returns a context for resolving path.
func NewDispatchContext(path string) *DispatchContext {
	return &DispatchContext{
		id:   uuid.NewString(),
		path: path,
	}
}

// ID returns the identifier assigned to this resolution.
func (dc *DispatchContext) ID() string { return dc.id }

// Path returns the path being resolved.
func (dc *DispatchContext) Path() string { return dc.path }

// Frames returns a copy of the full frame log, including exited frames.
func (dc *DispatchContext) Frames() []Frame {
	return slices.Clone(dc.frames)
}

// Active returns the frames that have not been exited, outermost first.
func (dc *DispatchContext) Active() []Frame {
	active := make([]Frame, 0, len(dc.frames))
	for _, f := range dc.frames {
		if !f.Exited {
			active = append(active, f)
		}
	}
	return active
}

// Current returns the innermost active frame.
func (dc *DispatchContext) Current() (Frame, bool) {
	for i := len(dc.frames) - 1; i >= 0; i-- {
		if !dc.frames[i].Exited {
			return dc.frames[i], true
		}
	}
	return Frame{}, false
}

// Controller returns the controller entered by the resolution, or nil.
func (dc *DispatchContext) Controller() Controller {
	if f, ok := dc.Current(); ok && f.Kind == FrameController {
		return f.Target
	}
	return nil
}

// Depth returns the number of active module frames.
func (dc *DispatchContext) Depth() int {
	n := 0
	for _, f := range dc.frames {
		if f.Kind == FrameModule && !f.Exited {
			n++
		}
	}
	return n
}

// Retracted returns the number of frames that were entered and then exited.
func (dc *DispatchContext) Retracted() int {
	n := 0
	for _, f := range dc.frames {
		if f.Exited {
			n++
		}
	}
	return n
}

// ResolveAgainst tries every rule of set in order and returns the first
// controller produced. It returns nil, nil when no rule matches.
// Errors from factories and modules stop the walk and are returned.
func (dc *DispatchContext) ResolveAgainst(set *RouteSet) (Controller, error) {
	for r := range set.Rules() {
		c, err := r.Resolve(dc)
		if err != nil {
			return nil, err
		}
		if c != nil {
			return c, nil
		}
	}
	return nil, nil
}

// enter appends a frame to the log.
func (dc *DispatchContext) enter(kind FrameKind, fragment string, r *Rule, target any) {
	dc.frames = append(dc.frames, Frame{
		Kind:     kind,
		Fragment: fragment,
		Path:     dc.path,
		Rule:     r,
		Target:   target,
	})
}

// exit retracts the innermost active frame of the given kind entered by r.
func (dc *DispatchContext) exit(kind FrameKind, r *Rule) {
	for i := len(dc.frames) - 1; i >= 0; i-- {
		f := &dc.frames[i]
		if f.Exited || f.Kind != kind || f.Rule != r {
			continue
		}
		f.Exited = true
		dc.emit(DiagFrameRetracted, "dispatch frame retracted", map[string]any{
			"kind":     kind.String(),
			"rule":     r.path,
			"fragment": f.Fragment,
			"path":     dc.path,
		})
		return
	}
}

// emit forwards a diagnostic event when a handler is attached.
func (dc *DispatchContext) emit(kind DiagnosticKind, msg string, fields map[string]any) {
	if dc.diag == nil {
		return
	}
	dc.diag.OnDiagnostic(DiagnosticEvent{Kind: kind, Message: msg, Fields: fields})
}

type dispatchContextKey struct{}

// WithContext returns a copy of ctx carrying dc.
func WithContext(ctx context.Context, dc *DispatchContext) context.Context {
	return context.WithValue(ctx, dispatchContextKey{}, dc)
}

// FromContext returns the [DispatchContext] stored in ctx by the dispatcher,
// or nil when there is none.
func FromContext(ctx context.Context) *DispatchContext {
	dc, _ := ctx.Value(dispatchContextKey{}).(*DispatchContext)
	return dc
}
