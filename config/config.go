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

package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"dario.cat/mergo"
	"github.com/go-viper/mapstructure/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"rivaas.dev/dispatch/config/codec"
	"rivaas.dev/dispatch/config/source"
)

// Option configures a [Config].
type Option func(c *Config) error

// Config manages configuration data loaded from multiple sources.
// Sources are merged in registration order, later sources overriding
// earlier ones. Keys are case-insensitive.
//
// Config is safe for concurrent use by multiple goroutines.
type Config struct {
	values           map[string]any
	sources          []Source
	binding          any
	tagName          string
	mu               sync.RWMutex
	jsonSchema       *jsonschema.Schema
	customValidators []func(map[string]any) error

	decoderConfig *mapstructure.DecoderConfig
	decoderOnce   sync.Once
}

// schemaSeq names inline schemas so each compiler sees a distinct resource.
var schemaSeq atomic.Uint64

// WithSource adds a source.
func WithSource(src Source) Option {
	return func(c *Config) error {
		if src == nil {
			return ErrNilSource
		}
		c.sources = append(c.sources, src)
		return nil
	}
}

// WithFile adds a file source. The format is detected from the extension
// (.yaml, .yml, .json, .toml). Environment variables in path are expanded.
func WithFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return err
		}
		return WithFileAs(path, format)(c)
	}
}

// WithOptionalFile is like [WithFile] but a missing file loads as empty.
func WithOptionalFile(path string) Option {
	return func(c *Config) error {
		path = os.ExpandEnv(path)
		format, err := detectFormat(path)
		if err != nil {
			return err
		}
		decoder, err := codec.GetDecoder(format)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewOptionalFile(path, decoder))
		return nil
	}
}

// WithFileAs adds a file source decoded with the given codec.
//
// Example:
//
//	config.WithFileAs("dispatchd.conf", codec.TypeYAML)
func WithFileAs(path string, codecType codec.Type) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(codecType)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFile(os.ExpandEnv(path), decoder))
		return nil
	}
}

// WithEnv adds environment variables starting with prefix. Nesting levels
// are separated by a double underscore:
//
//	DISPATCHD_SERVER__READ_TIMEOUT=5s -> server.read_timeout
func WithEnv(prefix string) Option {
	return func(c *Config) error {
		c.sources = append(c.sources, source.NewOSEnvVar(prefix))
		return nil
	}
}

// WithContent adds in-memory content decoded with the given codec.
func WithContent(data []byte, codecType codec.Type) Option {
	return func(c *Config) error {
		decoder, err := codec.GetDecoder(codecType)
		if err != nil {
			return err
		}
		c.sources = append(c.sources, source.NewFileContent(data, decoder))
		return nil
	}
}

// WithBinding binds the merged values to v, a pointer to a struct, on
// every successful [Config.Load].
func WithBinding(v any) Option {
	return func(c *Config) error {
		rv := reflect.ValueOf(v)
		if v == nil || rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
			return ErrInvalidBinding
		}
		c.binding = v
		return nil
	}
}

// WithTag sets the struct tag used for binding. Defaults to "config".
func WithTag(tagName string) Option {
	return func(c *Config) error {
		if tagName == "" {
			return ErrEmptyTag
		}
		c.tagName = tagName
		return nil
	}
}

// WithJSONSchema validates the merged values against schema on load.
func WithJSONSchema(schema []byte) Option {
	return func(c *Config) error {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schema))
		if err != nil {
			return fmt.Errorf("failed to parse JSON schema: %w", err)
		}

		name := fmt.Sprintf("inline_%d.json", schemaSeq.Add(1))
		compiler := jsonschema.NewCompiler()
		if err = compiler.AddResource(name, doc); err != nil {
			return fmt.Errorf("failed to add JSON schema: %w", err)
		}
		s, err := compiler.Compile(name)
		if err != nil {
			return fmt.Errorf("failed to compile JSON schema: %w", err)
		}
		c.jsonSchema = s
		return nil
	}
}

// WithValidator adds a function that validates the merged values on load.
func WithValidator(fn func(map[string]any) error) Option {
	return func(c *Config) error {
		if fn == nil {
			return ErrNilValidator
		}
		c.customValidators = append(c.customValidators, fn)
		return nil
	}
}

// New creates a Config. All option errors are joined.
func New(options ...Option) (*Config, error) {
	c := &Config{
		values:  map[string]any{},
		tagName: "config",
	}

	var errs error
	for _, option := range options {
		if option == nil {
			continue
		}
		errs = errors.Join(errs, option(c))
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

// MustNew is like [New] but panics on error.
func MustNew(options ...Option) *Config {
	c, err := New(options...)
	if err != nil {
		panic("config initialization failed: " + err.Error())
	}
	return c
}

// Validator is implemented by bound structs that validate themselves.
type Validator interface {
	Validate() error
}

func (c *Config) getDecoderConfig() *mapstructure.DecoderConfig {
	c.decoderOnce.Do(func() {
		c.decoderConfig = &mapstructure.DecoderConfig{
			TagName:          c.tagName,
			Squash:           true,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.StringToTimeHookFunc(time.RFC3339),
				mapstructure.StringToURLHookFunc(),
			),
		}
	})
	return c.decoderConfig
}

// normalizeMapKeys lowercases keys recursively.
func normalizeMapKeys(m map[string]any) map[string]any {
	normalized := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			v = normalizeMapKeys(nested)
		}
		normalized[strings.ToLower(k)] = v
	}
	return normalized
}

func (c *Config) loadSources(ctx context.Context) (map[string]any, error) {
	merged := make(map[string]any)
	for i, src := range c.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		values, err := src.Load(ctx)
		if err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "load", err)
		}
		if err = mergo.Map(&merged, normalizeMapKeys(values), mergo.WithOverride); err != nil {
			return nil, NewError(fmt.Sprintf("source[%d]", i), "merge", err)
		}
	}
	return merged, nil
}

// Load reads every source, validates the merged values and binds them.
// The stored values and the binding change only when every step succeeds.
//
// Errors:
//   - [*Error] with operation "load" or "merge" when a source fails
//   - [*Error] from "json-schema" or "custom-validator[i]" on validation failure
//   - [*Error] from "binding" when decoding or [Validator] fails
func (c *Config) Load(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}

	values, err := c.loadSources(ctx)
	if err != nil {
		return err
	}

	if c.jsonSchema != nil {
		if err = c.jsonSchema.Validate(values); err != nil {
			return NewError("json-schema", "validate", err)
		}
	}

	for i, fn := range c.customValidators {
		if err = runValidator(fn, values); err != nil {
			return NewError(fmt.Sprintf("custom-validator[%d]", i), "validate", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.binding != nil {
		tmp, err := c.decode(values)
		if err != nil {
			return NewError("binding", "bind", err)
		}
		if v, ok := tmp.(Validator); ok {
			if err = v.Validate(); err != nil {
				return NewError("binding", "validate", err)
			}
		}
		reflect.ValueOf(c.binding).Elem().Set(reflect.ValueOf(tmp).Elem())
	}

	c.values = values
	return nil
}

func runValidator(fn func(map[string]any) error, values map[string]any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("validator panic: %v", r)
		}
	}()
	return fn(values)
}

// decode binds values into a fresh instance of the binding type.
func (c *Config) decode(values map[string]any) (any, error) {
	tmp := reflect.New(reflect.TypeOf(c.binding).Elem()).Interface()

	cfg := *c.getDecoderConfig()
	cfg.Result = tmp
	decoder, err := mapstructure.NewDecoder(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err = decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	if err = applyDefaults(tmp); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return tmp, nil
}

// MustLoad is like [Config.Load] but panics on error.
func (c *Config) MustLoad(ctx context.Context) {
	if err := c.Load(ctx); err != nil {
		panic(err)
	}
}

// Values returns a copy of the top-level merged values.
func (c *Config) Values() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Encode renders the merged values with the encoder registered for
// codecType.
func (c *Config) Encode(codecType codec.Type) ([]byte, error) {
	encoder, err := codec.GetEncoder(codecType)
	if err != nil {
		return nil, err
	}
	return encoder.Encode(c.Values())
}
