package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// newStyles binds styles to w. Output that is not a terminal never gets
// escape codes.
func newStyles(w io.Writer, isTTY bool) *Styles {
	var opts []termenv.OutputOption
	if !isTTY {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	re := lipgloss.NewRenderer(w, opts...)

	return &Styles{
		Header1: re.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: re.NewStyle().Bold(true),
		Bold:    re.NewStyle().Bold(true),
		Muted:   re.NewStyle().Foreground(lipgloss.Color("8")),
		Success: re.NewStyle().Foreground(lipgloss.Color("10")),
		Warning: re.NewStyle().Foreground(lipgloss.Color("11")),
		Error:   re.NewStyle().Foreground(lipgloss.Color("9")),
	}
}
