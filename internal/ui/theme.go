package ui

import "github.com/charmbracelet/lipgloss"

var (
	white   = lipgloss.Color("#FFFFFF")
	gray    = lipgloss.Color("#9CA3AF")
	dimGray = lipgloss.Color("#4B5563")
	accent  = lipgloss.Color("#06B6D4")
	red     = lipgloss.Color("#EF4444")
	green   = lipgloss.Color("#22C55E")
)

type styles struct {
	title    lipgloss.Style
	label    lipgloss.Style
	body     lipgloss.Style
	timer    lipgloss.Style
	status   lipgloss.Style
	failed   lipgloss.Style
	done     lipgloss.Style
	enabled  lipgloss.Style
	disabled lipgloss.Style
	helpKey  lipgloss.Style
	muted    lipgloss.Style
	input    lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(white),
		label:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		body:     lipgloss.NewStyle().Foreground(gray).Width(72),
		timer:    lipgloss.NewStyle().Bold(true).Foreground(white),
		status:   lipgloss.NewStyle().Foreground(gray),
		failed:   lipgloss.NewStyle().Foreground(red),
		done:     lipgloss.NewStyle().Foreground(green),
		enabled:  lipgloss.NewStyle().Bold(true).Foreground(white).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(accent),
		disabled: lipgloss.NewStyle().Foreground(dimGray).Padding(0, 1).Border(lipgloss.RoundedBorder()).BorderForeground(dimGray),
		helpKey:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		muted:    lipgloss.NewStyle().Foreground(dimGray),
		input:    lipgloss.NewStyle().Foreground(white),
	}
}
