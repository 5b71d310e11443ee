// Package ui renders triage output for terminals: lipgloss styles on the Ayu
// palette, glamour Markdown, and plain-text fallbacks for pipes and agents.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/steveyegge/triage/internal/types"
)

// Ayu palette, adaptive to light and dark terminals.
var (
	ColorPass   = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	ColorWarn   = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	ColorFail   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	ColorMuted  = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}
	ColorAccent = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
	ColorOrange = lipgloss.AdaptiveColor{Light: "#fa8d3e", Dark: "#ff8f40"}
)

var (
	PassStyle     = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle     = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle     = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle    = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle   = lipgloss.NewStyle().Foreground(ColorAccent)
	CategoryStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	LabelStyle    = lipgloss.NewStyle().Foreground(ColorMuted).Width(11)
)

// priorityStyles color the four priorities from hottest to coolest.
var priorityStyles = map[types.Priority]lipgloss.Style{
	types.PriorityCritical: lipgloss.NewStyle().Bold(true).Foreground(ColorFail),
	types.PriorityHigh:     lipgloss.NewStyle().Foreground(ColorOrange),
	types.PriorityMedium:   lipgloss.NewStyle().Foreground(ColorWarn),
	types.PriorityLow:      MutedStyle,
}

// Status icons, with ASCII stand-ins for terminals that cannot show them.
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

var asciiIcons = map[string]string{
	IconPass: "ok",
	IconWarn: "!",
	IconFail: "x",
	IconInfo: "i",
}

// SeparatorLight is the rule printed between batch results.
const SeparatorLight = "──────────────────────────────────────────"

func icon(glyph string, style lipgloss.Style) string {
	if !ShouldUseEmoji() {
		glyph = asciiIcons[glyph]
	}
	return style.Render(glyph)
}

// RenderPassIcon renders the pass icon.
func RenderPassIcon() string { return icon(IconPass, PassStyle) }

// RenderWarnIcon renders the warning icon.
func RenderWarnIcon() string { return icon(IconWarn, WarnStyle) }

// RenderFailIcon renders the failure icon.
func RenderFailIcon() string { return icon(IconFail, FailStyle) }

// RenderInfoIcon renders the info icon.
func RenderInfoIcon() string { return icon(IconInfo, AccentStyle) }

func RenderPass(s string) string   { return PassStyle.Render(s) }
func RenderWarn(s string) string   { return WarnStyle.Render(s) }
func RenderFail(s string) string   { return FailStyle.Render(s) }
func RenderMuted(s string) string  { return MutedStyle.Render(s) }
func RenderAccent(s string) string { return AccentStyle.Render(s) }

// RenderCategory renders a section header in uppercase.
func RenderCategory(s string) string {
	return CategoryStyle.Render(strings.ToUpper(s))
}

// RenderSeparator renders the light rule in the muted color.
func RenderSeparator() string {
	return MutedStyle.Render(SeparatorLight)
}

// RenderPriority colors a priority by urgency.
func RenderPriority(p types.Priority) string {
	if s, ok := priorityStyles[p]; ok {
		return s.Render(string(p))
	}
	return string(p)
}

// RenderType renders an issue type; bugs stand out.
func RenderType(t types.IssueType) string {
	if t == types.TypeBug {
		return FailStyle.Render(string(t))
	}
	return AccentStyle.Render(string(t))
}

// RenderLabel renders a fixed-width field label for key/value listings.
func RenderLabel(s string) string {
	return LabelStyle.Render(s)
}
