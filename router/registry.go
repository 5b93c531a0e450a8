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

package router

import (
	"strings"
	"sync"
)

// ruleType maps a capability to the rule kind that serves it.
type ruleType struct {
	capability Capability
	kind       Kind
}

// ruleTypes is the process-wide capability table, built on first use.
// Order is priority: when a target declares several capabilities the first
// entry it satisfies wins.
var ruleTypes = sync.OnceValue(func() []ruleType {
	return []ruleType{
		{capability: CapabilityController, kind: KindDirect},
		{capability: CapabilityControllerFactory, kind: KindFactory},
		{capability: CapabilityRouteModule, kind: KindModule},
	}
})

// ruleTypeNames is the comma-joined list of known capability names.
var ruleTypeNames = sync.OnceValue(func() string {
	types := ruleTypes()
	names := make([]string, len(types))
	for i, rt := range types {
		names[i] = rt.capability.String()
	}
	return strings.Join(names, ",")
})

// NewRule creates a rule routing path to target.
//
// want selects the rule kind explicitly; pass [CapabilityAny] to select it
// from the capabilities target declares. Selection walks the capability
// table in priority order (Controller, ControllerFactory, RouteModule) and
// takes the first entry that equals want or, when want is unspecified, that
// target satisfies.
//
// Errors:
//   - [ErrEmptyPath] if path is empty
//   - [ErrNilTarget] if target is nil
//   - [ErrNoCapability] if no table entry matches
//
// All errors are returned as *[ConfigError].
func NewRule(path string, target *Type, want Capability) (*Rule, error) {
	if path == "" {
		return nil, &ConfigError{Target: target.String(), Err: ErrEmptyPath}
	}
	if target == nil {
		return nil, &ConfigError{Path: path, Err: ErrNilTarget}
	}

	declared := target.Capabilities()
	for _, rt := range ruleTypes() {
		if (want != CapabilityAny && want == rt.capability) ||
			(want == CapabilityAny && declared.Has(rt.capability)) {
			return newRule(rt.kind, path, target), nil
		}
	}

	return nil, &ConfigError{
		Path:   path,
		Target: target.String(),
		Err:    ErrNoCapability,
		Detail: "invalid route target, must be one of " + ruleTypeNames(),
	}
}

// MustNewRule is like [NewRule] but panics on error.
func MustNewRule(path string, target *Type, want Capability) *Rule {
	r, err := NewRule(path, target, want)
	if err != nil {
		panic(err)
	}
	return r
}
