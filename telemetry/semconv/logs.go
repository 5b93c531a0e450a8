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

package semconv

// Service metadata, set once on the root logger.
const (
	ServiceName       = "service.name"
	ServiceVersion    = "service.version"
	DeploymentEnviron = "deployment.environment"
)

// HTTP request and response attributes.
const (
	HTTPMethod     = "http.method"
	HTTPTarget     = "http.target"
	HTTPHost       = "http.host"
	HTTPFlavor     = "http.flavor"
	HTTPStatusCode = "http.status_code"
	HTTPUserAgent  = "http.user_agent"

	// HTTPResponseSize is the number of body bytes written.
	HTTPResponseSize = "http.response_size"

	// HTTPDuration is the time spent serving the request.
	HTTPDuration = "http.duration"
)

// Network attributes.
const (
	// NetworkPeerIP is the address of the immediate peer, possibly a proxy.
	NetworkPeerIP = "network.peer.ip"

	// NetworkClientIP is the client address after proxy headers were applied.
	NetworkClientIP = "network.client.ip"
)

// Trace correlation.
const (
	TraceID = "trace_id"
	SpanID  = "span_id"
)

// Request correlation.
const (
	// RequestID is the X-Request-ID value of the request.
	RequestID = "req.id"
)
