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

// Package lazy provides a value computed on first use.
package lazy

import (
	"sync"
	"sync/atomic"
)

// Value holds a T that is computed at most once successfully.
//
// Reads after the first successful computation are a single atomic load.
// A failed or panicking computation leaves the value unset, so the next
// Get runs init again. The zero Value is ready to use and must not be
// copied after first use.
type Value[T any] struct {
	p  atomic.Pointer[T]
	mu sync.Mutex
}

// Get returns the stored value, running init to produce it if none is
// stored yet. Concurrent first callers block until one init finishes;
// all of them observe the same result.
func (v *Value[T]) Get(init func() (T, error)) (T, error) {
	if p := v.p.Load(); p != nil {
		return *p, nil
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if p := v.p.Load(); p != nil {
		return *p, nil
	}

	val, err := init()
	if err != nil {
		var zero T
		return zero, err
	}
	v.p.Store(&val)
	return val, nil
}

// Load returns the stored value without computing it.
func (v *Value[T]) Load() (T, bool) {
	if p := v.p.Load(); p != nil {
		return *p, true
	}
	var zero T
	return zero, false
}

// Set stores val, replacing any previous value.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.p.Store(&val)
}
