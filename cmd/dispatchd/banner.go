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
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
	"golang.org/x/term"

	"rivaas.dev/dispatch/router"
)

// colorWriter downsamples ANSI colors to what w supports. plain strips
// them entirely.
func colorWriter(w io.Writer, plain bool) *colorprofile.Writer {
	cpw := colorprofile.NewWriter(w, os.Environ())
	if plain {
		cpw.Profile = colorprofile.NoTTY
	}
	return cpw
}

// printBanner writes the startup banner for s.
func printBanner(w io.Writer, s *Settings) {
	cw := colorWriter(w, false)

	gradient := []string{"12", "14", "10", "11"}
	var art strings.Builder
	for _, line := range figure.NewFigure(serviceName, "", false).Slicify() {
		if strings.TrimSpace(line) == "" {
			art.WriteString("\n")
			continue
		}
		for i, ch := range line {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(gradient[i%len(gradient)])).Bold(true)
			art.WriteString(style.Render(string(ch)))
		}
		art.WriteString("\n")
	}

	category := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Width(14).PaddingLeft(2)
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)
	disabled := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	provider := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))

	addr := s.Server.Addr
	if strings.HasPrefix(addr, ":") {
		addr = "0.0.0.0" + addr
	}
	addr = "http://" + addr

	line := func(b *strings.Builder, name, v string) {
		b.WriteString(label.Render(name+":") + "  " + v + "\n")
	}

	var out strings.Builder
	out.WriteString(category.Render("Service") + "\n")
	line(&out, "Version", value.Foreground(lipgloss.Color("14")).Render(version))
	line(&out, "Address", value.Foreground(lipgloss.Color("10")).Render(addr))
	line(&out, "Errors", value.Render(s.Errors.Format))

	out.WriteString("\n" + category.Render("Observability") + "\n")
	switch s.Metrics.Provider {
	case "none":
		line(&out, "Metrics", disabled.Render("Disabled"))
	case "prometheus":
		line(&out, "Metrics", value.Foreground(lipgloss.Color("13")).Render(addr+s.Metrics.Path)+"  "+
			provider.Render("["+s.Metrics.Provider+"]"))
	default:
		line(&out, "Metrics", value.Foreground(lipgloss.Color("13")).Render("Enabled")+"  "+
			provider.Render("["+s.Metrics.Provider+"]"))
	}
	if s.Tracing.Provider == "noop" {
		line(&out, "Tracing", disabled.Render("Disabled"))
	} else {
		line(&out, "Tracing", value.Foreground(lipgloss.Color("12")).Render("Enabled")+"  "+
			provider.Render("["+s.Tracing.Provider+"]"))
	}

	_, _ = fmt.Fprintln(cw)
	_, _ = fmt.Fprint(cw, art.String())
	_, _ = fmt.Fprintln(cw)
	_, _ = fmt.Fprint(cw, out.String())
	_, _ = fmt.Fprintln(cw)
}

var kindStyles = map[router.Kind]lipgloss.Style{
	router.KindDirect:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	router.KindFactory: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
	router.KindModule:  lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Bold(true),
}

// terminalWidth returns the width of w when it is a terminal, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	tw, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return tw
}

// renderRoutesTable writes routes as a bordered table at least width
// columns wide. A positive limit caps the width.
func renderRoutesTable(w io.Writer, routes []router.RouteInfo, width, limit int) {
	rows := make([][]string, 0, len(routes))
	minWidth := 2 + 3 + 8 + len("Pattern") + len("Kind") + len("Target") + len("Match")
	for _, r := range routes {
		match := "prefix"
		if r.Exact {
			match = "exact"
		}
		kind := r.Kind.String()
		if style, ok := kindStyles[r.Kind]; ok {
			kind = style.Render(kind)
		}
		pattern := strings.Repeat("  ", r.Depth) + r.Path
		rows = append(rows, []string{pattern, kind, r.Target, match})
		minWidth = max(minWidth, 2+3+8+len(pattern)+len(r.Kind.String())+len(r.Target)+len(match))
	}

	tableWidth := max(minWidth, width)
	if limit > 0 {
		tableWidth = min(tableWidth, limit)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				style = style.Bold(true).Foreground(lipgloss.Color("230"))
			}
			return style
		}).
		Headers("Pattern", "Kind", "Target", "Match").
		Rows(rows...).
		Width(tableWidth)

	_, _ = fmt.Fprintln(w, t.Render())
}
