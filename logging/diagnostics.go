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

package logging

import (
	"context"
	"log/slog"

	"rivaas.dev/dispatch/router"
)

// Diagnostics returns a [router.DiagnosticHandler] that writes every
// dispatcher diagnostic event to logger at debug level. A nil logger uses
// [slog.Default].
//
// Example:
//
//	d := router.MustNew(router.WithDiagnostics(logging.Diagnostics(logger.Logger())))
func Diagnostics(logger *slog.Logger) router.DiagnosticHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return router.DiagnosticHandlerFunc(func(e router.DiagnosticEvent) {
		ctx := context.Background()
		if !logger.Enabled(ctx, slog.LevelDebug) {
			return
		}
		attrs := make([]slog.Attr, 0, len(e.Fields)+1)
		attrs = append(attrs, slog.String("diagnostic", string(e.Kind)))
		for k, v := range e.Fields {
			attrs = append(attrs, slog.Any(k, v))
		}
		logger.LogAttrs(ctx, slog.LevelDebug, e.Message, attrs...)
	})
}
