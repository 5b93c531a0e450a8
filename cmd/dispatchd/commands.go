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
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rivaas.dev/dispatch/config/codec"
	"rivaas.dev/dispatch/router"
)

// newOfflineDispatcher builds the route table without observability, for
// inspection commands.
func newOfflineDispatcher() (*router.Dispatcher, error) {
	d, err := router.New()
	if err != nil {
		return nil, err
	}
	if err := registerRoutes(d, router.NoopLogger()); err != nil {
		return nil, err
	}
	return d, nil
}

func routesCmd(_ *globalFlags) *cobra.Command {
	var (
		asTable bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the route table in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, err := newOfflineDispatcher()
			if err != nil {
				return err
			}
			routes, err := d.Routes()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asTable {
				renderRoutesTable(colorWriter(out, plain), routes, 80, terminalWidth(out))
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tKIND\tTARGET\tMATCH")
			for _, r := range routes {
				match := "prefix"
				if r.Exact {
					match = "exact"
				}
				fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", strings.Repeat("  ", r.Depth), r.Path, r.Kind, r.Target, match)
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVarP(&asTable, "table", "t", false, "render a bordered table")
	cmd.Flags().BoolVar(&plain, "no-color", false, "disable colors in table output")
	return cmd
}

func resolveCmd(_ *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve a path and print the frames entered",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := newOfflineDispatcher()
			if err != nil {
				return err
			}
			dc, c, err := d.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "path:\t%s\n", dc.Path())
			if c == nil {
				fmt.Fprintln(w, "outcome:\tunmatched")
			} else {
				fmt.Fprintf(w, "outcome:\tmatched %T\n", c)
			}
			fmt.Fprintln(w, "frames:")
			for i, f := range dc.Frames() {
				state := "active"
				if f.Exited {
					state = "exited"
				}
				fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n", i, f.Kind, f.Fragment, f.Rule, state)
			}
			return w.Flush()
		},
	}
}

func configCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Validate settings and print the merged configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := flags.load(cmd.Context())
			if err != nil {
				return err
			}
			out, err := cfg.Encode(codec.Type(format))
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(codec.TypeYAML),
		fmt.Sprintf("output format %v", codec.EncoderTypes()))
	return cmd
}
