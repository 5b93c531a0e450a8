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

// Command dispatchd serves HTTP requests through a rule-chain dispatcher.
//
// Usage:
//
//	dispatchd serve --config dispatchd.yaml
//	dispatchd routes --table
//	dispatchd resolve /api/widgets/42
//	dispatchd config --format yaml
//
// Settings come from the optional config file and from environment
// variables prefixed with DISPATCHD_ (DISPATCHD_SERVER__ADDR=:9000).
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	envPrefix  string
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "dispatchd",
		Short: "Rule-chain HTTP dispatcher",
		Long: `dispatchd resolves request paths through an ordered chain of rules.

Rules either name a controller directly, ask a shared factory for one, or
delegate to a module with its own rules. Every resolution records the
frames it entered, which "dispatchd resolve" prints.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (.yaml, .json or .toml)")
	root.PersistentFlags().StringVar(&flags.envPrefix, "env-prefix", defaultEnvPrefix, "environment variable prefix")

	root.AddCommand(
		serveCmd(flags),
		routesCmd(flags),
		resolveCmd(flags),
		configCmd(flags),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dispatchd %s (%s)\n", version, commit)
		},
	}
}
