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

// Package router resolves request paths to controllers through a chain of
// rules.
//
// A [Rule] binds a path pattern to a target [Type]. Patterns ending in a
// single "$" match one path exactly; every other pattern matches by prefix.
// Matching ignores ASCII case. A trailing "$$" escapes a literal dollar and
// keeps prefix matching.
//
// Rules come in three kinds, chosen from the capabilities the target
// declares:
//
//   - Direct rules construct a controller from the target.
//   - Factory rules ask a shared [ControllerFactory], built once on first use.
//   - Module rules resolve against a nested [RouteSet] that a [RouteModule]
//     populates the first time a request reaches it.
//
// A [RouteSet] tries its rules longest pattern first. The first rule that
// produces a controller wins; a rule that matches but produces nothing lets
// later rules try.
//
// # Dispatch context
//
// Each resolution runs against a [DispatchContext]. Rules record the frames
// they enter (controller, factory, module) and retract factory and module
// frames that did not lead to a controller, so after a successful resolution
// [DispatchContext.Active] lists the chain that produced the controller.
//
// # Quick Start
//
//	d := router.MustNew(router.WithLogger(slog.Default()))
//
//	d.HandleFunc("/health$", func() router.Controller { return healthHandler{} })
//	d.HandleModule("/admin/", router.RouteModuleFunc(func(s *router.RouteSet) error {
//	    return s.HandleFunc("/admin/ping$", func() router.Controller { return pingHandler{} })
//	}))
//
//	http.ListenAndServe(":8080", d)
//
// Controllers that implement [net/http.Handler] are served by
// [Dispatcher.ServeHTTP]. Unmatched paths and resolution errors are written
// with the configured error formatter (RFC 9457 problem details by default).
//
// # Observability
//
// [Recorder] hooks run around every resolution and are how the metrics and
// tracing packages attach. [DiagnosticHandler] receives registration and
// resolution events such as module loads and retracted frames.
package router
