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

package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	rerrors "rivaas.dev/dispatch/errors"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/router"
)

// newDispatcher builds a dispatcher with the built-in routes.
func newDispatcher(s *Settings, obs *observability) (*router.Dispatcher, error) {
	formatter, err := rerrors.ForName(s.Errors.Format, s.Errors.BaseURL)
	if err != nil {
		return nil, err
	}
	logger := obs.logger.Logger()

	d, err := router.New(
		router.WithLogger(logger),
		router.WithDiagnostics(logging.Diagnostics(logger)),
		router.WithRecorder(obs.recorders()...),
		router.WithErrorFormatter(formatter),
	)
	if err != nil {
		return nil, err
	}
	if err := registerRoutes(d, logger); err != nil {
		return nil, err
	}
	return d, nil
}

// registerRoutes installs the built-in route table:
//
//	/health$        direct   health check
//	/ws$            direct   WebSocket echo
//	/api/           module
//	  /api/version$   direct   build information
//	  /api/widgets/   factory  numeric widget IDs only
func registerRoutes(d *router.Dispatcher, logger *slog.Logger) error {
	echo := newEchoController(logger)
	return errors.Join(
		d.HandleFunc("/health$", func() router.Controller { return healthController{} }),
		d.HandleFunc("/ws$", func() router.Controller { return echo }),
		d.HandleModule("/api/", router.RouteModuleFunc(apiRoutes)),
	)
}

func apiRoutes(set *router.RouteSet) error {
	return errors.Join(
		set.HandleFunc("/api/version$", func() router.Controller { return versionController{} }),
		set.HandleFactory("/api/widgets/", router.ControllerFactoryFunc(widgetFactory)),
	)
}

// widgetFactory produces a controller for /api/widgets/<digits> and
// declines every other remainder.
func widgetFactory(dc *router.DispatchContext) (router.Controller, error) {
	f, ok := dc.Current()
	if !ok {
		return nil, nil
	}
	id := strings.TrimPrefix(dc.Path(), f.Fragment)
	if id == "" || strings.Trim(id, "0123456789") != "" {
		return nil, nil
	}
	return widgetController{id: id}, nil
}

type healthController struct{}

func (healthController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

type versionController struct{}

func (versionController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"version": version, "commit": commit})
}

type widgetController struct {
	id string
}

func (c widgetController) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var frames []string
	if dc := router.FromContext(r.Context()); dc != nil {
		for _, f := range dc.Active() {
			frames = append(frames, f.Kind.String())
		}
	}
	render.JSON(w, r, map[string]any{"id": c.id, "frames": frames})
}
