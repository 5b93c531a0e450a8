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

package main

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"rivaas.dev/dispatch/config/source"
	"rivaas.dev/dispatch/logging"
	"rivaas.dev/dispatch/tracing"
)

// testSettings loads settings from env, a list of DISPATCHD_ entries.
func testSettings(t *testing.T, env ...string) *Settings {
	t.Helper()

	s, _, err := loadSettings(context.Background(), "", source.NewEnvList(defaultEnvPrefix, env))
	require.NoError(t, err)
	return s
}

// testObservability builds observability for s that logs to io.Discard.
func testObservability(t *testing.T, s *Settings) *observability {
	t.Helper()

	obs, err := newObservability(s, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { obs.shutdown(context.Background()) })
	return obs
}

// testServer serves the full handler stack for s.
func testServer(t *testing.T, s *Settings, obs *observability) *httptest.Server {
	t.Helper()

	d, err := newDispatcher(s, obs)
	require.NoError(t, err)

	srv := httptest.NewServer(newHandler(s, obs, d))
	t.Cleanup(srv.Close)
	return srv
}

// tracedObservability swaps in a recording tracer and a capturing logger.
func tracedObservability(t *testing.T, s *Settings) (*observability, *logging.TestHelper, *tracetest.SpanRecorder) {
	t.Helper()

	obs := testObservability(t, s)
	th := logging.NewTestHelper(t)
	tracer, spans := tracing.TestingTracer(t)
	obs.logger = th.Logger
	obs.tracer = tracer
	return obs, th, spans
}
