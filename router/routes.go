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
	"cmp"
	"fmt"
	"iter"
	"slices"
)

// RouteSet is an ordered collection of rules tried in order until one
// produces a controller.
//
// A RouteSet is populated at configuration time and sorted once; after
// [RouteSet.Sort] it is read-only and safe for concurrent readers.
// Registration methods are not synchronized.
type RouteSet struct {
	rules []*Rule
}

// NewRouteSet returns an empty route set.
func NewRouteSet() *RouteSet {
	return &RouteSet{}
}

// Add appends r to the set.
func (s *RouteSet) Add(r *Rule) {
	s.rules = append(s.rules, r)
}

// Handle registers target at path, picking the rule kind from the
// capabilities target declares.
func (s *RouteSet) Handle(path string, target *Type) error {
	return s.HandleAs(path, target, CapabilityAny)
}

// HandleAs registers target at path using the rule kind for want.
// Nothing is added when the rule cannot be created.
func (s *RouteSet) HandleAs(path string, target *Type, want Capability) error {
	r, err := NewRule(path, target, want)
	if err != nil {
		return err
	}
	s.Add(r)
	return nil
}

// HandleFunc registers a controller constructor at path.
func (s *RouteSet) HandleFunc(path string, fn func() Controller) error {
	if fn == nil {
		return s.Handle(path, nil)
	}
	return s.Handle(path, ControllerType(path, fn))
}

// HandleFactory registers a shared factory at path.
func (s *RouteSet) HandleFactory(path string, f ControllerFactory) error {
	if f == nil {
		return s.Handle(path, nil)
	}
	return s.Handle(path, FactoryType(fmt.Sprintf("%T", f), func() ControllerFactory { return f }))
}

// HandleModule registers a module at path. The module's routes are loaded
// the first time a request reaches path.
func (s *RouteSet) HandleModule(path string, m RouteModule) error {
	if m == nil {
		return s.Handle(path, nil)
	}
	return s.Handle(path, ModuleType(fmt.Sprintf("%T", m), func() RouteModule { return m }))
}

// Load constructs the module described by target and lets it register its
// routes into s.
func (s *RouteSet) Load(target *Type) (RouteModule, error) {
	if target == nil || target.NewModule == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilModule, target)
	}
	m := target.NewModule()
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNilModule, target)
	}
	if err := m.Routes(s); err != nil {
		return nil, fmt.Errorf("load module %s: %w", target, err)
	}
	return m, nil
}

// Sort orders the rules longest pattern first. Rules with patterns of equal
// length keep their registration order, so the result is a total order and
// the first matching rule is always the most specific one registered first.
func (s *RouteSet) Sort() {
	slices.SortStableFunc(s.rules, func(a, b *Rule) int {
		return cmp.Compare(len(b.path), len(a.path))
	})
}

// Rules iterates over the rules in their current order.
func (s *RouteSet) Rules() iter.Seq[*Rule] {
	return slices.Values(s.rules)
}

// Len returns the number of rules.
func (s *RouteSet) Len() int {
	return len(s.rules)
}
