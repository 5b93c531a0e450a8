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

//go:build !integration

package lazy

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type widget struct{ id int }

func TestValue_GetComputesOnce(t *testing.T) {
	t.Parallel()

	var v Value[int]
	var calls int
	init := func() (int, error) {
		calls++
		return 42, nil
	}

	for range 3 {
		got, err := v.Get(init)
		require.NoError(t, err)
		assert.Equal(t, 42, got)
	}
	assert.Equal(t, 1, calls)

	got, ok := v.Load()
	assert.True(t, ok)
	assert.Equal(t, 42, got)
}

func TestValue_ErrorIsNotCached(t *testing.T) {
	t.Parallel()

	var v Value[string]
	boom := errors.New("boom")

	_, err := v.Get(func() (string, error) { return "", boom })
	require.ErrorIs(t, err, boom)

	_, ok := v.Load()
	assert.False(t, ok)

	got, err := v.Get(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestValue_PanicIsNotCached(t *testing.T) {
	t.Parallel()

	var v Value[int]
	assert.Panics(t, func() {
		_, _ = v.Get(func() (int, error) { panic("init failed") })
	})

	got, err := v.Get(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)
}

func TestValue_SetOverridesInit(t *testing.T) {
	t.Parallel()

	var v Value[int]
	v.Set(5)

	got, err := v.Get(func() (int, error) {
		t.Fatal("init must not run after Set")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	v.Set(6)
	got, ok := v.Load()
	assert.True(t, ok)
	assert.Equal(t, 6, got)
}

func TestValue_ConcurrentFirstAccess(t *testing.T) {
	t.Parallel()

	var v Value[*widget]
	var calls atomic.Int32
	init := func() (*widget, error) {
		calls.Add(1)
		return &widget{id: 1}, nil
	}

	results := make([]*widget, 64)
	var g errgroup.Group
	for i := range results {
		g.Go(func() error {
			w, err := v.Get(init)
			results[i] = w
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), calls.Load())
	for _, w := range results {
		assert.Same(t, results[0], w)
	}
}
