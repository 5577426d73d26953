// Package tui is the terminal list editor behind the edit command.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent      = lipgloss.Color("#8BC34A")
	muted       = lipgloss.Color("#7a8699")
	destructive = lipgloss.Color("#e53935")
	warning     = lipgloss.Color("#FFC107")
)

// Styles holds the lipgloss styles of the editor.
type Styles struct {
	Title    lipgloss.Style
	Meta     lipgloss.Style
	Header   lipgloss.Style
	Row      lipgloss.Style
	Selected lipgloss.Style
	Pending  lipgloss.Style
	Dirty    lipgloss.Style
	Error    lipgloss.Style
	Status   lipgloss.Style
	Help     lipgloss.Style
	Prompt   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		Meta:     lipgloss.NewStyle().Foreground(muted),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Row:      lipgloss.NewStyle().PaddingLeft(2),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Pending:  lipgloss.NewStyle().Italic(true).Foreground(muted),
		Dirty:    lipgloss.NewStyle().Bold(true).Foreground(warning),
		Error:    lipgloss.NewStyle().Foreground(destructive),
		Status:   lipgloss.NewStyle().Foreground(accent),
		Help:     lipgloss.NewStyle().Foreground(muted),
		Prompt:   lipgloss.NewStyle().Bold(true),
	}
}
