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

// Package codec converts configuration data between bytes and Go values.
//
// Every format registers an [Encoder] and a [Decoder] under its [Type]:
//
//   - [TypeJSON]: encoding/json
//   - [TypeYAML]: github.com/goccy/go-yaml
//   - [TypeTOML]: github.com/BurntSushi/toml
//   - [TypeEnvVar]: KEY=value lines, decode only
//
// Custom formats are added with [RegisterEncoder] and [RegisterDecoder]:
//
//	codec.RegisterDecoder(codec.Type("ini"), iniCodec{})
package codec
