package ui

import (
	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders an issue body for the terminal. Plain Markdown is
// returned unchanged in agent mode, without color, or when glamour fails.
func RenderMarkdown(markdown string) string {
	if IsAgentMode() || !ShouldUseColor() {
		return markdown
	}
	return renderGlamour(markdown, TerminalWidth())
}

func renderGlamour(markdown string, width int) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
