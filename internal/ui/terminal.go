package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Fallback and ceiling for rendered text width.
const (
	DefaultWidth     = 80
	MaxReadableWidth = 100
)

func init() {
	ApplyColorProfile()
}

// ApplyColorProfile points lipgloss at the profile ShouldUseColor allows.
// Call it again after changing NO_COLOR or CLICOLOR_FORCE at runtime.
func ApplyColorProfile() {
	switch {
	case !ShouldUseColor():
		lipgloss.SetColorProfile(termenv.Ascii)
	case os.Getenv("CLICOLOR_FORCE") != "" && !IsTerminal():
		lipgloss.SetColorProfile(termenv.ANSI256)
	default:
		lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).ColorProfile())
	}
}

// IsTerminal reports whether stdout is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ShouldUseColor follows the NO_COLOR and CLICOLOR conventions:
// NO_COLOR (any value) wins, then CLICOLOR=0, then CLICOLOR_FORCE, then the TTY check.
func ShouldUseColor() bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("CLICOLOR") == "0" {
		return false
	}
	if f := os.Getenv("CLICOLOR_FORCE"); f != "" && f != "0" {
		return true
	}
	return IsTerminal()
}

// ShouldUseEmoji is false when TRIAGE_NO_EMOJI is set or stdout is not a TTY.
func ShouldUseEmoji() bool {
	if os.Getenv("TRIAGE_NO_EMOJI") != "" {
		return false
	}
	return IsTerminal()
}

// IsAgentMode reports whether output is being consumed by a tool rather
// than a person. Agents get plain Markdown instead of glamour output.
func IsAgentMode() bool {
	switch os.Getenv("TRIAGE_AGENT_MODE") {
	case "1", "true", "yes":
		return true
	}
	return false
}

// TerminalWidth returns the stdout width capped at MaxReadableWidth, or
// DefaultWidth when it cannot be measured.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return DefaultWidth
	}
	if w > MaxReadableWidth {
		return MaxReadableWidth
	}
	return w
}
