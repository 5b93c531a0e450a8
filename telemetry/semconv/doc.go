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

// Package semconv defines attribute keys shared by dispatchd logs.
//
// The keys follow OpenTelemetry semantic conventions where one exists, so
// access logs, resolution logs and spans can be joined on the same names:
//
//	logger.Info("http request",
//	    semconv.HTTPMethod, r.Method,
//	    semconv.HTTPTarget, r.URL.Path,
//	    semconv.HTTPStatusCode, status,
//	)
package semconv
