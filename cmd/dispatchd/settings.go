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

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/config/source"
)

const defaultEnvPrefix = "DISPATCHD_"

// Settings holds the daemon configuration.
type Settings struct {
	Server  ServerSettings  `config:"server" json:"server"`
	Log     LogSettings     `config:"log" json:"log"`
	Metrics MetricsSettings `config:"metrics" json:"metrics"`
	Tracing TracingSettings `config:"tracing" json:"tracing"`
	Errors  ErrorSettings   `config:"errors" json:"errors"`
}

// ServerSettings configures the HTTP listener.
type ServerSettings struct {
	Addr            string        `config:"addr" json:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration `config:"read_timeout" json:"read_timeout" default:"5s" validate:"gt=0"`
	WriteTimeout    time.Duration `config:"write_timeout" json:"write_timeout" default:"10s" validate:"gt=0"`
	ShutdownTimeout time.Duration `config:"shutdown_timeout" json:"shutdown_timeout" default:"30s" validate:"min=1s"`
}

// LogSettings configures the logger.
type LogSettings struct {
	Level  string `config:"level" json:"level" default:"info" validate:"oneof=debug info warn error"`
	Format string `config:"format" json:"format" default:"json" validate:"oneof=json text console"`

	// Access log tuning. Errors and slow requests are always logged.
	SlowThreshold time.Duration `config:"slow_threshold" json:"slow_threshold" default:"1s" validate:"gte=0"`
	SampleRate    float64       `config:"sample_rate" json:"sample_rate" default:"1" validate:"gte=0,lte=1"`
}

// MetricsSettings configures resolution metrics. Provider "none" disables them.
type MetricsSettings struct {
	Provider string `config:"provider" json:"provider" default:"prometheus" validate:"oneof=prometheus stdout otlp none"`
	Endpoint string `config:"endpoint" json:"endpoint" validate:"required_if=Provider otlp"`
	Path     string `config:"path" json:"path" default:"/metrics" validate:"startswith=/"`
}

// TracingSettings configures resolution and request spans.
type TracingSettings struct {
	Provider   string  `config:"provider" json:"provider" default:"noop" validate:"oneof=noop stdout otlp otlp-http"`
	Endpoint   string  `config:"endpoint" json:"endpoint" validate:"required_if=Provider otlp,required_if=Provider otlp-http"`
	Insecure   bool    `config:"insecure" json:"insecure"`
	SampleRate float64 `config:"sample_rate" json:"sample_rate" default:"1" validate:"gte=0,lte=1"`
}

// ErrorSettings configures error responses.
type ErrorSettings struct {
	Format  string `config:"format" json:"format" default:"rfc9457" validate:"oneof=rfc9457 problem simple"`
	BaseURL string `config:"base_url" json:"base_url" validate:"omitempty,url"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings after defaults were applied.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// loadSettings reads settings from path (if set), then env.
func loadSettings(ctx context.Context, path string, env config.Source) (*Settings, *config.Config, error) {
	s := &Settings{}
	var opts []config.Option
	if path != "" {
		opts = append(opts, config.WithFile(path))
	}
	opts = append(opts,
		config.WithSource(env),
		config.WithBinding(s),
	)

	cfg, err := config.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Load(ctx); err != nil {
		return nil, nil, err
	}
	return s, cfg, nil
}

func (f *globalFlags) load(ctx context.Context) (*Settings, *config.Config, error) {
	return loadSettings(ctx, f.configPath, source.NewOSEnvVar(f.envPrefix))
}
