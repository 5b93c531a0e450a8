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

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type staticSource struct {
	values map[string]any
	err    error
}

func (s *staticSource) Load(context.Context) (map[string]any, error) {
	return s.values, s.err
}

// TestSource returns a source that loads values.
func TestSource(values map[string]any) Source {
	return &staticSource{values: values}
}

// TestSourceWithError returns a source whose Load fails with err.
func TestSourceWithError(err error) Source {
	return &staticSource{err: err}
}

// TestConfig creates and loads a Config, failing the test on error.
func TestConfig(t testing.TB, opts ...Option) *Config {
	t.Helper()

	cfg, err := New(opts...)
	require.NoError(t, err)
	require.NoError(t, cfg.Load(context.Background()))
	return cfg
}

// TestConfigFile writes content to a file named name in a temporary
// directory and returns its path.
func TestConfigFile(t testing.TB, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}
