package hub

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/dopamind/internal/play"
)

type styles struct {
	activeNav   lipgloss.Style
	inactiveNav lipgloss.Style
	header      lipgloss.Style
	title       lipgloss.Style
	muted       lipgloss.Style
	err         lipgloss.Style
	card        lipgloss.Style
	cardTitle   lipgloss.Style
	cardValue   lipgloss.Style
	modal       lipgloss.Style
	challenge   lipgloss.Style
}

func newStyles(th play.Theme) styles {
	return styles{
		activeNav: lipgloss.NewStyle().
			Foreground(lipgloss.Color(th.Fg)).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color(th.Accent)),
		inactiveNav: lipgloss.NewStyle().
			Foreground(lipgloss.Color(th.Muted)).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color(th.Muted)),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color(th.Muted)),
		title:     lipgloss.NewStyle().Foreground(lipgloss.Color(th.Accent)).Bold(true),
		muted:     lipgloss.NewStyle().Foreground(lipgloss.Color(th.Muted)),
		err:       lipgloss.NewStyle().Foreground(lipgloss.Color(th.Danger)),
		card:      lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color(th.Muted)),
		cardTitle: lipgloss.NewStyle().Foreground(lipgloss.Color(th.Muted)),
		cardValue: lipgloss.NewStyle().Foreground(lipgloss.Color(th.Fg)).Bold(true),
		modal: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color(th.Accent)).
			Padding(1, 2),
		challenge: lipgloss.NewStyle().
			Foreground(lipgloss.Color(th.Fg)).
			Bold(true).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color(th.Accent)),
	}
}

func tableStyles(th play.Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color(th.Muted)).
		Foreground(lipgloss.Color(th.Fg)).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	s.Cell = s.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	s.Selected = s.Cell.
		Foreground(lipgloss.Color(th.Accent)).
		Bold(true)
	return s
}

func metricCard(st styles, label, value string) string {
	return st.card.Render(st.cardTitle.Render(label) + "\n" + st.cardValue.Render(value))
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
