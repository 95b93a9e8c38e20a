/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"datacards/internal/domain"
)

// MinTerminalWidth is the narrowest preview Terminal produces.
const MinTerminalWidth = 24

var (
	termCard   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#d1d5db")).Padding(0, 1)
	termHeader = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	termQ      = lipgloss.NewStyle().Bold(true)
	termTally  = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
)

// Terminal renders v as a bordered box at most width columns wide.
func Terminal(v CardView, width int) string {
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	inner := width - 4 // border + padding
	center := func(s string) string { return lipgloss.PlaceHorizontal(inner, lipgloss.Center, s) }

	var lines []string
	lines = append(lines, center(termHeader.Render(truncate(v.CollectionName, inner))))
	lines = append(lines, "", center(iconLabel(v)), "")
	lines = append(lines, center(termQ.Width(inner).Align(lipgloss.Center).Render(v.Question())), "")

	tally := termTally.Render("[      ]")
	labelW := inner - 2 - lipgloss.Width(tally) - 1
	for _, o := range v.Card.Options {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(Hex(domain.ColorOr(o.Color, colCircle)))).Render("●")
		label := truncate(o.Text, labelW)
		fill := strings.Repeat(" ", max(0, labelW-lipgloss.Width(label)))
		lines = append(lines, dot+" "+label+fill+" "+tally)
	}
	return termCard.Width(width - 2).Render(strings.Join(lines, "\n"))
}

func iconLabel(v CardView) string {
	switch ic := v.Card.Glyph().(type) {
	case domain.CatalogIcon:
		if ic.ID == "" {
			return "( )"
		}
		return "[" + ic.ID + "]"
	case domain.ImageIcon:
		if ic.DataURL == "" {
			return "( )"
		}
		mime, data, err := domain.DecodeDataURL(ic.DataURL)
		if err != nil {
			return "[broken image]"
		}
		return fmt.Sprintf("[%s, %d KB]", mime, (len(data)+1023)/1024)
	default:
		return "( " + v.TextGlyph() + " )"
	}
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > n {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}
