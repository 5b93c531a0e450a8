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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/config/source"
)

func TestLoadSettings_Defaults(t *testing.T) {
	t.Parallel()

	s := testSettings(t)

	assert.Equal(t, ":8080", s.Server.Addr)
	assert.Equal(t, 5*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, s.Server.WriteTimeout)
	assert.Equal(t, 30*time.Second, s.Server.ShutdownTimeout)
	assert.Equal(t, "info", s.Log.Level)
	assert.Equal(t, "json", s.Log.Format)
	assert.Equal(t, time.Second, s.Log.SlowThreshold)
	assert.InDelta(t, 1.0, s.Log.SampleRate, 1e-9)
	assert.Equal(t, "prometheus", s.Metrics.Provider)
	assert.Equal(t, "/metrics", s.Metrics.Path)
	assert.Equal(t, "noop", s.Tracing.Provider)
	assert.InDelta(t, 1.0, s.Tracing.SampleRate, 1e-9)
	assert.Equal(t, "rfc9457", s.Errors.Format)
}

func TestLoadSettings_EnvOverrides(t *testing.T) {
	t.Parallel()

	s := testSettings(t,
		"DISPATCHD_SERVER__ADDR=:9000",
		"DISPATCHD_SERVER__SHUTDOWN_TIMEOUT=2s",
		"DISPATCHD_LOG__LEVEL=debug",
		"DISPATCHD_TRACING__SAMPLE_RATE=0.25",
		"DISPATCHD_ERRORS__FORMAT=simple",
	)

	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, 2*time.Second, s.Server.ShutdownTimeout)
	assert.Equal(t, "debug", s.Log.Level)
	assert.InDelta(t, 0.25, s.Tracing.SampleRate, 1e-9)
	assert.Equal(t, "simple", s.Errors.Format)
}

func TestLoadSettings_FileThenEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "dispatchd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \":7000\"\nlog:\n  level: warn\n"), 0o600))

	s, _, err := loadSettings(context.Background(), path,
		source.NewEnvList(defaultEnvPrefix, []string{"DISPATCHD_LOG__LEVEL=error"}))
	require.NoError(t, err)

	assert.Equal(t, ":7000", s.Server.Addr)
	assert.Equal(t, "error", s.Log.Level)
}

func TestLoadSettings_MissingFile(t *testing.T) {
	t.Parallel()

	_, _, err := loadSettings(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"),
		source.NewEnvList(defaultEnvPrefix, nil))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadSettings_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		env   string
		field string
	}{
		{name: "log level", env: "DISPATCHD_LOG__LEVEL=loud", field: "Settings.Log.Level"},
		{name: "log format", env: "DISPATCHD_LOG__FORMAT=xml", field: "Settings.Log.Format"},
		{name: "access log sample rate", env: "DISPATCHD_LOG__SAMPLE_RATE=-1", field: "Settings.Log.SampleRate"},
		{name: "otlp metrics without endpoint", env: "DISPATCHD_METRICS__PROVIDER=otlp", field: "Settings.Metrics.Endpoint"},
		{name: "metrics path", env: "DISPATCHD_METRICS__PATH=metrics", field: "Settings.Metrics.Path"},
		{name: "otlp tracing without endpoint", env: "DISPATCHD_TRACING__PROVIDER=otlp", field: "Settings.Tracing.Endpoint"},
		{name: "sample rate", env: "DISPATCHD_TRACING__SAMPLE_RATE=2", field: "Settings.Tracing.SampleRate"},
		{name: "shutdown timeout", env: "DISPATCHD_SERVER__SHUTDOWN_TIMEOUT=500ms", field: "Settings.Server.ShutdownTimeout"},
		{name: "error format", env: "DISPATCHD_ERRORS__FORMAT=xml", field: "Settings.Errors.Format"},
		{name: "base url", env: "DISPATCHD_ERRORS__BASE_URL=not a url", field: "Settings.Errors.BaseURL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, _, err := loadSettings(context.Background(), "",
				source.NewEnvList(defaultEnvPrefix, []string{tt.env}))
			require.Error(t, err)

			var cerr *config.Error
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, "binding", cerr.Source)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestLoadSettings_UnparsableDuration(t *testing.T) {
	t.Parallel()

	_, _, err := loadSettings(context.Background(), "",
		source.NewEnvList(defaultEnvPrefix, []string{"DISPATCHD_SERVER__READ_TIMEOUT=soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "during bind")
}
