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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"rivaas.dev/dispatch/metrics"
	"rivaas.dev/dispatch/middleware/accesslog"
	"rivaas.dev/dispatch/middleware/recovery"
	"rivaas.dev/dispatch/middleware/requestid"
	"rivaas.dev/dispatch/router"
	"rivaas.dev/dispatch/tracing"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		addr     string
		noBanner bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, _, err := flags.load(ctx)
			if err != nil {
				return err
			}
			if addr != "" {
				s.Server.Addr = addr
			}
			if !noBanner {
				printBanner(cmd.OutOrStdout(), s)
			}
			return serve(ctx, s, cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noBanner, "no-banner", false, "do not print the startup banner")
	return cmd
}

// serve builds the daemon from s and runs it until ctx is done.
func serve(ctx context.Context, s *Settings, logOut io.Writer) error {
	obs, err := newObservability(s, logOut)
	if err != nil {
		return err
	}
	d, err := newDispatcher(s, obs)
	if err != nil {
		obs.shutdown(ctx)
		return err
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.Server.Addr)
	if err != nil {
		obs.shutdown(ctx)
		return fmt.Errorf("failed to listen on %s: %w", s.Server.Addr, err)
	}
	return run(ctx, s, obs, newHandler(s, obs, d), ln)
}

// newHandler mounts the metrics endpoint and the traced dispatcher behind
// the request ID, recovery and access log middleware.
func newHandler(s *Settings, obs *observability, d *router.Dispatcher) http.Handler {
	logger := obs.logger.Logger()

	r := chi.NewRouter()
	r.Use(
		middleware.RealIP,
		requestid.New(),
		recovery.New(
			recovery.WithLogger(logger),
			recovery.WithFormatter(d.Formatter()),
		),
		accesslog.New(
			accesslog.WithLogger(logger),
			accesslog.WithExcludePaths(s.Metrics.Path),
			accesslog.WithSlowThreshold(s.Log.SlowThreshold),
			accesslog.WithSampleRate(s.Log.SampleRate),
		),
	)

	if obs.metrics != nil && obs.metrics.Provider() == metrics.PrometheusProvider {
		r.Method(http.MethodGet, s.Metrics.Path, obs.metrics.Handler())
	}

	traced := tracing.Middleware(obs.tracer,
		tracing.WithExcludePaths(s.Metrics.Path, "/health"),
		tracing.WithHeaders(requestid.DefaultHeader),
	)
	r.Handle("/*", traced(d))
	return r
}

// run serves on ln until ctx is done, then shuts down within the
// configured timeout.
func run(ctx context.Context, s *Settings, obs *observability, h http.Handler, ln net.Listener) error {
	if err := obs.start(ctx); err != nil {
		_ = ln.Close()
		obs.shutdown(ctx)
		return err
	}

	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       s.Server.ReadTimeout,
		ReadHeaderTimeout: s.Server.ReadTimeout,
		WriteTimeout:      s.Server.WriteTimeout,
		ErrorLog:          slog.NewLogLogger(obs.logger.Logger().Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		obs.logger.Info("server starting",
			"address", ln.Addr().String(),
			"metrics", s.Metrics.Provider,
			"tracing", s.Tracing.Provider,
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		obs.logger.Info("server shutting down", "reason", context.Cause(gctx))

		// ctx is already done; the shutdown gets its own deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.Server.ShutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		obs.shutdown(shutdownCtx)
		if err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		obs.logger.Info("server exited")
		return nil
	})
	return g.Wait()
}
