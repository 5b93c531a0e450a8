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

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivaas.dev/dispatch/router"
)

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	th := NewTestHelper(t)
	d := router.MustNew(router.WithDiagnostics(Diagnostics(th.Logger.Logger())))

	require.NoError(t, d.HandleFunc("/health$", func() router.Controller { return struct{}{} }))
	d.Freeze()

	th.AssertLog(t, "DEBUG", "route registered", map[string]any{
		"diagnostic": "rule_registered",
		"path":       "/health$",
		"kind":       "direct",
		"exact":      true,
	})
	th.AssertLog(t, "DEBUG", "routes frozen", map[string]any{
		"diagnostic": "routes_frozen",
		"rules":      1,
	})
}

func TestDiagnostics_LevelGate(t *testing.T) {
	t.Parallel()

	th := NewTestHelper(t, WithLevel(LevelInfo))
	Diagnostics(th.Logger.Logger()).OnDiagnostic(router.DiagnosticEvent{
		Kind:    router.DiagModuleLoaded,
		Message: "route module loaded",
	})
	assert.False(t, th.ContainsLog("route module loaded"))
}

func TestDiagnostics_NilLogger(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() {
		Diagnostics(nil).OnDiagnostic(router.DiagnosticEvent{Kind: router.DiagRoutesFrozen})
	})
}
