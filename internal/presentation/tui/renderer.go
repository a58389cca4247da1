package tui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer turns assistant messages into terminal output.
type Renderer func(string) (string, error)

// NewRenderer returns a markdown renderer using glamour.
// It falls back to plain text when glamour cannot be initialised.
func NewRenderer() Renderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return Plain
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// Plain renders text unchanged, one message per line.
func Plain(text string) (string, error) {
	return strings.TrimRight(text, "\n") + "\n", nil
}
