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

package router

import (
	"context"
	"net/http"
	"sync"

	"github.com/stretchr/testify/mock"
)

// stubController is a named controller that also serves HTTP.
type stubController struct {
	name string
}

func (c *stubController) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(c.name))
}

// newStub returns a constructor for stubController values named name.
func newStub(name string) func() Controller {
	return func() Controller { return &stubController{name: name} }
}

// stubType returns a controller target named name.
func stubType(name string) *Type {
	return ControllerType(name, newStub(name))
}

// nameOf returns the name of a stubController, or "" for anything else.
func nameOf(c Controller) string {
	if s, ok := c.(*stubController); ok {
		return s.name
	}
	return ""
}

// frameKinds lists the kinds of frames in order.
func frameKinds(frames []Frame) []FrameKind {
	kinds := make([]FrameKind, len(frames))
	for i, f := range frames {
		kinds[i] = f.Kind
	}
	return kinds
}

// diagnosticCollector records diagnostic events.
type diagnosticCollector struct {
	mu     sync.Mutex
	events []DiagnosticEvent
}

func (c *diagnosticCollector) OnDiagnostic(e DiagnosticEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *diagnosticCollector) kinds() []DiagnosticKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]DiagnosticKind, len(c.events))
	for i, e := range c.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (c *diagnosticCollector) ofKind(kind DiagnosticKind) []DiagnosticEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []DiagnosticEvent
	for _, e := range c.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// recordingRecorder captures the ResolveInfo of every resolution.
type recordingRecorder struct {
	mu     sync.Mutex
	starts []string
	infos  []ResolveInfo
	skip   bool // return a nil state from OnResolveStart
}

type recorderKey struct{}

func (r *recordingRecorder) OnResolveStart(ctx context.Context, path string) (context.Context, any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, path)
	if r.skip {
		return ctx, nil
	}
	return context.WithValue(ctx, recorderKey{}, path), path
}

func (r *recordingRecorder) OnResolveEnd(ctx context.Context, state any, info ResolveInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ctx.Value(recorderKey{}) != state {
		panic("recorder context was not propagated")
	}
	r.infos = append(r.infos, info)
}

func (r *recordingRecorder) recorded() []ResolveInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ResolveInfo, len(r.infos))
	copy(out, r.infos)
	return out
}

// mockFactory is a ControllerFactory driven by testify expectations.
type mockFactory struct {
	mock.Mock
}

func (m *mockFactory) Controller(dc *DispatchContext) (Controller, error) {
	args := m.Called(dc)
	c, _ := args.Get(0).(Controller)
	return c, args.Error(1)
}

// mockRecorder is a Recorder driven by testify expectations.
type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) OnResolveStart(ctx context.Context, path string) (context.Context, any) {
	return ctx, m.Called(ctx, path).Get(0)
}

func (m *mockRecorder) OnResolveEnd(ctx context.Context, state any, info ResolveInfo) {
	m.Called(ctx, state, info)
}
