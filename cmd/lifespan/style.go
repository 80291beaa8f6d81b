// Copyright 2025 Zintix Labs
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
	"github.com/charmbracelet/lipgloss"
	"github.com/zintix-labs/lifespan/quality"
)

var (
	colorFresh      = lipgloss.Color("#2E7D32")
	colorAcceptable = lipgloss.Color("#F4D03F")
	colorSpoiled    = lipgloss.Color("#E74C3C")
	colorMuted      = lipgloss.Color("#7F8C8D")
	colorAccent     = lipgloss.Color("#20B9B4")
)

type cliStyles struct {
	Title  lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style
	Score  lipgloss.Style
	Box    lipgloss.Style
	Prompt lipgloss.Style

	Verdict map[quality.Verdict]lipgloss.Style
}

var styles = newStyles()

func newStyles() cliStyles {
	return cliStyles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
		Muted:  lipgloss.NewStyle().Foreground(colorMuted),
		Error:  lipgloss.NewStyle().Bold(true).Foreground(colorSpoiled),
		Score:  lipgloss.NewStyle().Bold(true),
		Box:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorAccent).Padding(0, 1),
		Prompt: lipgloss.NewStyle().Foreground(colorAccent),
		Verdict: map[quality.Verdict]lipgloss.Style{
			quality.VerdictFresh:      lipgloss.NewStyle().Bold(true).Foreground(colorFresh),
			quality.VerdictAcceptable: lipgloss.NewStyle().Bold(true).Foreground(colorAcceptable),
			quality.VerdictSpoiled:    lipgloss.NewStyle().Bold(true).Foreground(colorSpoiled),
		},
	}
}

func (s cliStyles) verdict(v quality.Verdict) string {
	if st, ok := s.Verdict[v]; ok {
		return st.Render(v.String())
	}
	return v.String()
}
