package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// IsInteractive checks if stdout is a terminal.
func IsInteractive() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// RenderPageHeader writes a consistent styled header for commands.
func RenderPageHeader(w io.Writer, title, subtitle string) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary).
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorSecondary).
		MarginBottom(1)

	fmt.Fprintln(w, titleStyle.Render(title))
	if subtitle != "" {
		fmt.Fprintf(w, "  %s\n\n", StyleSubtle.Render(subtitle))
	}
}

// Panel represents a styled panel with optional title and content.
type Panel struct {
	Title       string
	Content     string
	BorderColor lipgloss.Color
	Width       int
}

// NewPanel creates a new panel with default styling.
func NewPanel(title, content string) *Panel {
	return &Panel{
		Title:       title,
		Content:     content,
		BorderColor: ColorSecondary,
	}
}

// WithBorderColor sets the border color and returns the panel.
func (p *Panel) WithBorderColor(color lipgloss.Color) *Panel {
	p.BorderColor = color
	return p
}

// Render returns the styled panel as a string.
func (p *Panel) Render() string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.BorderColor).
		Padding(0, 1)

	if p.Width > 0 {
		style = style.Width(p.Width)
	}

	content := p.Content
	if p.Title != "" {
		titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
		content = titleStyle.Render(p.Title) + "\n" + p.Content
	}
	return style.Render(content)
}

// RenderSuccessPanel renders a panel with success styling (green border).
func RenderSuccessPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorSuccess).Render()
}

// RenderWarningPanel renders a panel with warning styling (yellow border).
func RenderWarningPanel(title, content string) string {
	return NewPanel(title, content).WithBorderColor(ColorWarning).Render()
}
