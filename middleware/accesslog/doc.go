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

// Package accesslog writes one structured log entry per HTTP request.
//
// Entries use the attribute keys from the semconv package. Successful
// requests log at info, client errors and slow requests at warn, server
// errors at error:
//
//	handler = accesslog.New(
//	    accesslog.WithLogger(logger),
//	    accesslog.WithExcludePaths("/health", "/metrics"),
//	    accesslog.WithSlowThreshold(time.Second),
//	)(handler)
//
// # Sampling
//
// [WithSampleRate] keeps a fraction of successful requests. The decision is
// a hash of the request ID, so all services that see the same ID agree.
// Errors and slow requests are always logged.
package accesslog
