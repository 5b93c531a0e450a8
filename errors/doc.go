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

// Package errors formats dispatch failures as HTTP error responses.
//
// The dispatcher writes an error response when no rule matches a request
// path, when a factory or module fails, or when the resolved controller
// cannot serve HTTP. The response shape is chosen by a [Formatter]:
//   - RFC9457: RFC 9457 Problem Details (application/problem+json)
//   - Simple: a flat JSON object (application/json)
//
// Errors can implement optional interfaces to control the response:
//
//   - ErrorType: declare the HTTP status code
//   - ErrorDetails: provide structured details
//   - ErrorCode: provide a machine-readable code
//
// # Quick Start
//
//	formatter, err := errors.ForName("rfc9457", "https://example.com/problems")
//	if err != nil {
//		return err
//	}
//	d := router.MustNew(router.WithErrorFormatter(formatter))
//
// Writing a response directly:
//
//	resp := formatter.Format(req, err)
//	_ = errors.Write(w, resp)
package errors
