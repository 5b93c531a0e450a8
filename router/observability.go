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
	"time"
)

// Outcome classifies how a resolution ended.
type Outcome string

const (
	// OutcomeMatched means a controller was produced.
	OutcomeMatched Outcome = "matched"
	// OutcomeUnmatched means every rule was tried without a controller.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeError means a factory or module failed.
	OutcomeError Outcome = "error"
)

// ResolveInfo describes a finished resolution.
type ResolveInfo struct {
	Path      string
	Outcome   Outcome
	Rule      string // Pattern of the rule that produced the controller, or ""
	Kind      Kind   // Kind of that rule, or 0
	Frames    int    // Active frames after resolution
	Retracted int    // Frames entered and then exited
	Depth     int    // Active module frames
	Duration  time.Duration
	Err       error
}

// Recorder provides observability hooks around each resolution.
// Implementations typically record metrics or trace spans.
//
// Lifecycle:
//  1. Dispatcher calls OnResolveStart(ctx, path) → (enrichedCtx, state)
//  2. The rule chain is walked
//  3. Dispatcher calls OnResolveEnd(enrichedCtx, state, info) if state != nil
//
// Returning a nil state excludes the resolution from OnResolveEnd.
//
// Thread safety: All methods must be safe for concurrent use.
type Recorder interface {
	// OnResolveStart is called before the rule chain is walked.
	OnResolveStart(ctx context.Context, path string) (context.Context, any)

	// OnResolveEnd is called after the walk finished, including when it failed.
	OnResolveEnd(ctx context.Context, state any, info ResolveInfo)
}

// newResolveInfo summarizes dc after a walk.
func newResolveInfo(dc *DispatchContext, c Controller, err error, d time.Duration) ResolveInfo {
	info := ResolveInfo{
		Path:      dc.path,
		Frames:    len(dc.Active()),
		Retracted: dc.Retracted(),
		Depth:     dc.Depth(),
		Duration:  d,
		Err:       err,
	}
	switch {
	case err != nil:
		info.Outcome = OutcomeError
	case c == nil:
		info.Outcome = OutcomeUnmatched
	default:
		info.Outcome = OutcomeMatched
		if f, ok := dc.Current(); ok {
			info.Rule = f.Rule.path
			info.Kind = f.Rule.kind
		}
	}
	return info
}
