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

package codec

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Type identifies a codec.
type Type string

// Encoder converts Go values into encoded bytes.
// Implementations must be safe for concurrent use.
type Encoder interface {
	Encode(v any) ([]byte, error)
}

// Decoder converts encoded bytes into the value pointed to by v.
// Implementations must be safe for concurrent use.
type Decoder interface {
	Decode(data []byte, v any) error
}

var (
	// ErrUnknownCodec indicates no codec is registered under the requested type.
	ErrUnknownCodec = errors.New("unknown codec")

	// ErrEncodeUnsupported indicates a codec that only decodes.
	ErrEncodeUnsupported = errors.New("encoding not supported")
)

var registry = struct {
	mu       sync.RWMutex
	encoders map[Type]Encoder
	decoders map[Type]Decoder
}{
	encoders: make(map[Type]Encoder),
	decoders: make(map[Type]Decoder),
}

// RegisterEncoder registers encoder under name, replacing any previous one.
func RegisterEncoder(name Type, encoder Encoder) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.encoders[name] = encoder
}

// RegisterDecoder registers decoder under name, replacing any previous one.
func RegisterDecoder(name Type, decoder Decoder) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.decoders[name] = decoder
}

// GetEncoder returns the encoder registered under name.
func GetEncoder(name Type) (Encoder, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if e, ok := registry.encoders[name]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: encoder %q", ErrUnknownCodec, name)
}

// GetDecoder returns the decoder registered under name.
func GetDecoder(name Type) (Decoder, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	if d, ok := registry.decoders[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: decoder %q", ErrUnknownCodec, name)
}

// EncoderTypes returns the registered encoder types in sorted order.
func EncoderTypes() []Type {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	types := make([]Type, 0, len(registry.encoders))
	for t := range registry.encoders {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
