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

package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"rivaas.dev/dispatch/config/codec"
)

// OSEnvVar loads configuration from environment variables sharing a prefix.
// The prefix is stripped and the rest is decoded by [codec.EnvVarCodec]:
//
//	DISPATCHD_SERVER__ADDR=:8080     -> server.addr = ":8080"
//	DISPATCHD_LOG__LEVEL=debug       -> log.level = "debug"
type OSEnvVar struct {
	prefix  string
	environ func() []string
}

// NewOSEnvVar returns a source reading the process environment.
func NewOSEnvVar(prefix string) *OSEnvVar {
	return &OSEnvVar{prefix: prefix, environ: os.Environ}
}

// NewEnvList returns a source reading env, a list of KEY=value entries.
func NewEnvList(prefix string, env []string) *OSEnvVar {
	return &OSEnvVar{prefix: prefix, environ: func() []string { return env }}
}

// Load decodes the prefixed variables.
func (e *OSEnvVar) Load(context.Context) (map[string]any, error) {
	var b strings.Builder
	for _, kv := range e.environ() {
		rest, ok := strings.CutPrefix(kv, e.prefix)
		if !ok {
			continue
		}
		b.WriteString(rest)
		b.WriteByte('\n')
	}

	var values map[string]any
	if err := (codec.EnvVarCodec{}).Decode([]byte(b.String()), &values); err != nil {
		return nil, fmt.Errorf("failed to decode environment variables: %w", err)
	}
	return values, nil
}
