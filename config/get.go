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
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookup resolves a case-insensitive dot-separated key. A top-level key
// containing dots matches before nested traversal.
func (c *Config) lookup(key string) (any, bool) {
	if c == nil || key == "" {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	key = strings.ToLower(key)
	if v, ok := c.values[key]; ok {
		return v, true
	}

	current := c.values
	segments := strings.Split(key, ".")
	for i, seg := range segments {
		v, ok := current[seg]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		if current, ok = v.(map[string]any); !ok {
			return nil, false
		}
	}
	return nil, false
}

// Get returns the value at key, or nil.
func (c *Config) Get(key string) any {
	v, _ := c.lookup(key)
	return v
}

// IsSet reports whether key has a value.
func (c *Config) IsSet(key string) bool {
	_, ok := c.lookup(key)
	return ok
}

// String returns the value at key as a string.
func (c *Config) String(key string) string { return cast.ToString(c.Get(key)) }

// Int returns the value at key as an int.
func (c *Config) Int(key string) int { return cast.ToInt(c.Get(key)) }

// Int64 returns the value at key as an int64.
func (c *Config) Int64(key string) int64 { return cast.ToInt64(c.Get(key)) }

// Float64 returns the value at key as a float64.
func (c *Config) Float64(key string) float64 { return cast.ToFloat64(c.Get(key)) }

// Bool returns the value at key as a bool.
func (c *Config) Bool(key string) bool { return cast.ToBool(c.Get(key)) }

// Duration returns the value at key as a duration.
func (c *Config) Duration(key string) time.Duration { return cast.ToDuration(c.Get(key)) }

// StringSlice returns the value at key as a string slice.
func (c *Config) StringSlice(key string) []string { return cast.ToStringSlice(c.Get(key)) }

// StringMap returns the value at key as a map.
func (c *Config) StringMap(key string) map[string]any { return cast.ToStringMap(c.Get(key)) }

// StringOr returns the string at key, or def when unset or not convertible.
func (c *Config) StringOr(key, def string) string {
	return getOr(c, key, def, cast.ToStringE)
}

// IntOr returns the int at key, or def when unset or not convertible.
func (c *Config) IntOr(key string, def int) int {
	return getOr(c, key, def, cast.ToIntE)
}

// BoolOr returns the bool at key, or def when unset or not convertible.
func (c *Config) BoolOr(key string, def bool) bool {
	return getOr(c, key, def, cast.ToBoolE)
}

// DurationOr returns the duration at key, or def when unset or not
// convertible.
func (c *Config) DurationOr(key string, def time.Duration) time.Duration {
	return getOr(c, key, def, cast.ToDurationE)
}

// StringSliceOr returns the slice at key, or def when unset or not
// convertible.
func (c *Config) StringSliceOr(key string, def []string) []string {
	return getOr(c, key, def, cast.ToStringSliceE)
}

func getOr[T any](c *Config, key string, def T, conv func(any) (T, error)) T {
	v, ok := c.lookup(key)
	if !ok {
		return def
	}
	out, err := conv(v)
	if err != nil {
		return def
	}
	return out
}
