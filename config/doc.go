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

// Package config loads dispatchd settings from files, environment variables
// and in-memory content.
//
// Sources are merged in order, later sources overriding earlier ones, and
// keys are case-insensitive. Merged values can be read through dot-separated
// keys or bound to a struct.
//
// # Quick Start
//
//	var s Settings
//	cfg := config.MustNew(
//	    config.WithOptionalFile("dispatchd.yaml"),
//	    config.WithEnv("DISPATCHD_"),
//	    config.WithBinding(&s),
//	)
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	addr := cfg.StringOr("server.addr", ":8080")
//
// # Environment Variables
//
// A double underscore separates nesting levels; single underscores stay in
// the key:
//
//	DISPATCHD_SERVER__READ_TIMEOUT=5s  -> server.read_timeout
//	DISPATCHD_LOG__LEVEL=debug         -> log.level
//
// # Struct Binding
//
// Fields are matched through the `config` tag (see [WithTag]). Fields left
// zero after binding take the value of their `default` tag. A bound struct
// implementing [Validator] is validated before it is updated:
//
//	type Settings struct {
//	    Addr    string        `config:"addr" default:":8080"`
//	    Timeout time.Duration `config:"timeout" default:"5s"`
//	}
//
// # Validation
//
// [WithJSONSchema] checks the merged map against a JSON Schema and
// [WithValidator] adds arbitrary checks. A failed validation leaves the
// previous values and binding untouched.
package config
