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

import "strings"

// Controller is the value a resolution produces.
// The dispatcher places no contract on it beyond being constructible;
// controllers that also implement [net/http.Handler] can be served directly.
type Controller any

// ControllerFactory produces controllers on demand.
// It is built once per factory rule and shared by all resolutions through
// that rule, so implementations must be safe for concurrent use.
//
// Returning a nil controller and a nil error means "no match": the next
// rule in the set is tried.
type ControllerFactory interface {
	Controller(dc *DispatchContext) (Controller, error)
}

// ControllerFactoryFunc adapts an ordinary function to [ControllerFactory].
type ControllerFactoryFunc func(dc *DispatchContext) (Controller, error)

// Controller calls f(dc).
func (f ControllerFactoryFunc) Controller(dc *DispatchContext) (Controller, error) {
	return f(dc)
}

// RouteModule contributes a nested set of routes.
// Routes is called once, the first time a request reaches the module rule,
// with a fresh [RouteSet] that the module populates.
type RouteModule interface {
	Routes(set *RouteSet) error
}

// RouteModuleFunc adapts an ordinary function to [RouteModule].
type RouteModuleFunc func(set *RouteSet) error

// Routes calls f(set).
func (f RouteModuleFunc) Routes(set *RouteSet) error {
	return f(set)
}

// Capability names a contract a [Type] can satisfy.
// Capabilities form a bit set so a type may declare more than one.
type Capability uint8

const (
	// CapabilityController marks types that construct controllers directly.
	CapabilityController Capability = 1 << iota
	// CapabilityControllerFactory marks types that construct a [ControllerFactory].
	CapabilityControllerFactory
	// CapabilityRouteModule marks types that construct a [RouteModule].
	CapabilityRouteModule
)

// CapabilityAny places no constraint on rule selection; the registry picks
// the rule kind from the capabilities the target declares.
const CapabilityAny Capability = 0

// Has reports whether c includes every bit of other.
func (c Capability) Has(other Capability) bool {
	return other != 0 && c&other == other
}

// String returns the capability name, or a comma-joined list for sets.
func (c Capability) String() string {
	if c == CapabilityAny {
		return "Any"
	}
	var names []string
	if c.Has(CapabilityController) {
		names = append(names, "Controller")
	}
	if c.Has(CapabilityControllerFactory) {
		names = append(names, "ControllerFactory")
	}
	if c.Has(CapabilityRouteModule) {
		names = append(names, "RouteModule")
	}
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, ",")
}

// Type describes a route target: a named set of constructors, one per
// capability the target supports. A non-nil constructor is the target's
// declaration that it satisfies the matching capability.
//
// Example:
//
//	users := &router.Type{
//	    Name:          "users",
//	    NewController: func() router.Controller { return &UsersController{} },
//	}
type Type struct {
	// Name identifies the target in route tables, logs and errors.
	Name string

	// NewController constructs a controller. Returning nil means the
	// instance is unusable and resolution falls through to the next rule.
	NewController func() Controller

	// NewFactory constructs the factory shared by a factory rule.
	NewFactory func() ControllerFactory

	// NewModule constructs the module loaded by a module rule.
	NewModule func() RouteModule
}

// ControllerType returns a target that constructs controllers with fn.
func ControllerType(name string, fn func() Controller) *Type {
	return &Type{Name: name, NewController: fn}
}

// FactoryType returns a target that constructs a controller factory with fn.
func FactoryType(name string, fn func() ControllerFactory) *Type {
	return &Type{Name: name, NewFactory: fn}
}

// ModuleType returns a target that constructs a route module with fn.
func ModuleType(name string, fn func() RouteModule) *Type {
	return &Type{Name: name, NewModule: fn}
}

// Capabilities returns the capability set the type declares.
func (t *Type) Capabilities() Capability {
	if t == nil {
		return CapabilityAny
	}
	var c Capability
	if t.NewController != nil {
		c |= CapabilityController
	}
	if t.NewFactory != nil {
		c |= CapabilityControllerFactory
	}
	if t.NewModule != nil {
		c |= CapabilityRouteModule
	}
	return c
}

// String returns the type name.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.Name == "" {
		return "<unnamed>"
	}
	return t.Name
}
