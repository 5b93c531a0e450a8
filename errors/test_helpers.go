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

package errors

// Test doubles shared by the formatter tests.

// routeError mimics a dispatch error with status, code and details.
type routeError struct {
	message string
	code    string
	status  int
	details any
}

func (e *routeError) Error() string {
	return e.message
}

func (e *routeError) Code() string {
	return e.code
}

func (e *routeError) HTTPStatus() int {
	return e.status
}

func (e *routeError) Details() any {
	return e.details
}

// plainError implements none of the optional interfaces.
type plainError struct {
	message string
}

func (e *plainError) Error() string {
	return e.message
}
