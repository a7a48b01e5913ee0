package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles of text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Formula lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles returns colored styles for a terminal and plain ones otherwise.
func NewStyles(color bool) *Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return &Styles{
			Header1:       plain,
			Header2:       plain,
			Bold:          plain,
			Muted:         plain,
			Formula:       plain,
			Error:         plain,
			Warning:       plain,
			StatusSuccess: plain.SetString("ok"),
			StatusFailed:  plain.SetString("error:"),
		}
	}
	return &Styles{
		Header1:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2:       lipgloss.NewStyle().Bold(true),
		Bold:          lipgloss.NewStyle().Bold(true),
		Muted:         lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		Formula:       lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		Error:         lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Warning:       lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		StatusSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
