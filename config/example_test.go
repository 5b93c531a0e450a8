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

package config_test

import (
	"context"
	"fmt"
	"log"
	"time"

	"rivaas.dev/dispatch/config"
	"rivaas.dev/dispatch/config/codec"
	"rivaas.dev/dispatch/config/source"
)

func Example() {
	type server struct {
		Addr        string        `config:"addr" default:":8080"`
		ReadTimeout time.Duration `config:"read_timeout" default:"5s"`
	}
	var s struct {
		Server server `config:"server"`
	}

	cfg, err := config.New(
		config.WithContent([]byte("server:\n  addr: \":9000\"\n"), codec.TypeYAML),
		config.WithSource(source.NewEnvList("DISPATCHD_", []string{"DISPATCHD_SERVER__READ_TIMEOUT=2s"})),
		config.WithBinding(&s),
	)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Load(context.Background()); err != nil {
		log.Fatal(err)
	}

	fmt.Println(s.Server.Addr, s.Server.ReadTimeout)
	fmt.Println(cfg.String("server.read_timeout"))
	// Output:
	// :9000 2s
	// 2s
}
