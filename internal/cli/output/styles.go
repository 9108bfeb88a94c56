package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the terminal styles used by the renderer.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Path    lipgloss.Style
}

// DefaultStyles returns the colored styles used on a terminal.
func DefaultStyles() *Styles {
	return &Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Path:    lipgloss.NewStyle().Underline(true),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Header:  plain,
		Success: plain,
		Warning: plain,
		Error:   plain,
		Muted:   plain,
		Path:    plain,
	}
}
