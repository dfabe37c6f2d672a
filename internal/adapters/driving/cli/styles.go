package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Colour palette for terminal output.
var (
	colourPrimary = lipgloss.Color("#7C3AED") // Purple
	colourMuted   = lipgloss.Color("#6C7086") // Medium gray
	colourSuccess = lipgloss.Color("#A6E3A1") // Green
	colourWarning = lipgloss.Color("#F9E2AF") // Yellow
	colourError   = lipgloss.Color("#F38BA8") // Red
)

// outputStyles renders status words. Plain output uses zero styles.
type outputStyles struct {
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Accepted lipgloss.Style
	Rejected lipgloss.Style
	Error    lipgloss.Style
}

func plainStyles() outputStyles {
	return outputStyles{
		Title:    lipgloss.NewStyle(),
		Muted:    lipgloss.NewStyle(),
		Accepted: lipgloss.NewStyle(),
		Rejected: lipgloss.NewStyle(),
		Error:    lipgloss.NewStyle(),
	}
}

func colourStyles() outputStyles {
	return outputStyles{
		Title:    lipgloss.NewStyle().Foreground(colourPrimary).Bold(true),
		Muted:    lipgloss.NewStyle().Foreground(colourMuted),
		Accepted: lipgloss.NewStyle().Foreground(colourSuccess),
		Rejected: lipgloss.NewStyle().Foreground(colourWarning),
		Error:    lipgloss.NewStyle().Foreground(colourError).Bold(true),
	}
}

// stylesFor returns colour styles when w is a terminal.
func stylesFor(w io.Writer) outputStyles {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return colourStyles()
	}
	return plainStyles()
}
