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

package codec

import (
	"bytes"
	"fmt"
	"strings"
)

// TypeEnvVar identifies the environment variable codec.
const TypeEnvVar Type = "env_var"

// EnvNestingSeparator separates nesting levels in variable names.
// SERVER__READ_TIMEOUT decodes to server.read_timeout.
const EnvNestingSeparator = "__"

func init() {
	RegisterDecoder(TypeEnvVar, EnvVarCodec{})
}

// EnvVarCodec decodes KEY=value lines into a nested map. Keys are
// lowercased; a double underscore starts a nested map.
type EnvVarCodec struct{}

// Encode always fails; environment variables are a read-only source.
func (EnvVarCodec) Encode(any) ([]byte, error) {
	return nil, fmt.Errorf("%w: %s", ErrEncodeUnsupported, TypeEnvVar)
}

// Decode implements [Decoder]. v must be a *map[string]any.
func (EnvVarCodec) Decode(data []byte, v any) error {
	ptr, ok := v.(*map[string]any)
	if !ok {
		return fmt.Errorf("EnvVarCodec.Decode: expected *map[string]any, got %T", v)
	}

	conf := make(map[string]any)
	for line := range bytes.SplitSeq(data, []byte("\n")) {
		key, value, ok := strings.Cut(string(line), "=")
		if !ok {
			continue
		}

		var parts []string
		for part := range strings.SplitSeq(strings.ToLower(strings.TrimSpace(key)), EnvNestingSeparator) {
			if part = strings.Trim(part, "_"); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			continue
		}

		current := conf
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = strings.TrimSpace(value)
	}

	*ptr = conf
	return nil
}
