package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"yetify/internal/playback"
)

const (
	accent   = lipgloss.Color("#1DB954")
	surface  = lipgloss.Color("#282828")
	maxWidth = 48
	barWidth = maxWidth - 18
)

var (
	titleStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	currentStyle = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	barStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(surface).
			Padding(0, 1).
			Width(maxWidth)
)

func (m Model) View() string {
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render("Yetify"),
		strings.Repeat(" ", maxWidth-len("Yetify")-1),
		mutedStyle.Render("●"),
	)

	var list strings.Builder
	for i, song := range m.songs {
		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}
		icon := "▶"
		current := m.state.IsCurrent(song)
		if current && m.state.IsPlaying() {
			icon = "⏸"
		}
		line := fmt.Sprintf("%s %s  %s", icon, song.Title, mutedStyle.Render(song.Artist))
		if current {
			line = fmt.Sprintf("%s %s  %s", icon, currentStyle.Render(song.Title), mutedStyle.Render(song.Artist))
		}
		list.WriteString(cursor + line + "\n")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		list.String(),
		barStyle.Render(m.playerBar()),
		m.helpText(),
	)

	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m Model) playerBar() string {
	st := m.state
	var b strings.Builder

	b.WriteString(currentStyle.Render(st.Song.Title) + " " + mutedStyle.Render(st.Song.Artist) + "\n")
	b.WriteString(progressBar(st.Progress(), barWidth))
	b.WriteString(fmt.Sprintf(" %s/%s\n", formatDur(st.Position), formatDur(st.Duration)))

	toggle := "▶"
	if st.IsPlaying() {
		toggle = "⏸"
	}
	b.WriteString(fmt.Sprintf("⏮  %s  ⏭", toggle))

	switch {
	case st.Status == playback.StatusFailed && st.Err != nil:
		b.WriteString("\n" + errorStyle.Render(fmt.Sprintf("Playback failed: %v", st.Err)))
	case m.lastError != nil:
		b.WriteString("\n" + errorStyle.Render("Error: "+m.lastError.Error()))
	}
	return b.String()
}

func (m Model) helpText() string {
	if !m.showHelp {
		return mutedStyle.Render("Press ? for help")
	}
	return mutedStyle.Render("↑/k ↓/j move · enter play · space/p play/pause · n next · b previous · q quit")
}

// progressBar renders ratio as a fixed-width bar of filled and empty cells.
func progressBar(ratio float64, width int) string {
	filled := int(float64(width) * ratio)
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}
	return currentStyle.Render(strings.Repeat("█", filled)) + strings.Repeat("─", width-filled)
}

func formatDur(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}
	s := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
