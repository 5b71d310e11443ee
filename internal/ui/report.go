package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// RenderValidation lists validation findings under a one-line verdict.
func RenderValidation(v types.ValidationResult) string {
	var b strings.Builder
	switch {
	case v.Valid && len(v.Warnings) == 0:
		b.WriteString(RenderPassIcon() + " " + RenderPass("valid"))
	case v.Valid:
		fmt.Fprintf(&b, "%s %s", RenderWarnIcon(), RenderWarn("valid with "+plural(len(v.Warnings), "warning")))
	default:
		verdict := plural(len(v.Errors), "error")
		if len(v.Warnings) > 0 {
			verdict += ", " + plural(len(v.Warnings), "warning")
		}
		fmt.Fprintf(&b, "%s %s", RenderFailIcon(), RenderFail("invalid: "+verdict))
	}
	b.WriteString("\n")
	width := TerminalWidth() - 4
	for _, e := range v.Errors {
		b.WriteString(finding(RenderFailIcon(), e, width))
	}
	for _, w := range v.Warnings {
		b.WriteString(finding(RenderWarnIcon(), w, width))
	}
	return b.String()
}

func finding(icon string, f types.ValidationIssue, width int) string {
	text := WrapText(f.Field+": "+f.Message, width)
	text = strings.ReplaceAll(text, "\n", "\n    ")
	return fmt.Sprintf("  %s %s %s\n", icon, text, RenderMuted("["+f.Code+"]"))
}

// RenderSummary prints the triage fields of a parse result as an aligned
// key/value block, followed by the recovery trail when fallback ran.
func RenderSummary(r *types.ParseResult) string {
	issue := r.Issue
	var b strings.Builder
	row := func(label, value string) {
		if value != "" {
			b.WriteString(RenderLabel(label) + " " + value + "\n")
		}
	}

	src := string(issue.Source)
	if issue.SourceID != "" {
		src += " " + RenderAccent("#"+issue.SourceID)
	}
	row("source", src)
	row("url", RenderMuted(issue.SourceURL))
	row("type", RenderType(issue.Type))
	row("priority", RenderPriority(issue.Context.Priority))
	row("component", issue.Context.Component)
	row("service", issue.Context.Service)
	row("env", issue.Context.Environment)
	if issue.Context.DueAt != nil {
		row("due", issue.Context.DueAt.Format("2006-01-02"))
	} else {
		row("due", issue.Context.Due)
	}
	row("files", strings.Join(issue.Context.RelatedFiles, ", "))
	row("symbols", strings.Join(issue.Context.RelatedSymbols, ", "))

	if ca := issue.CodeAnalysis; ca != nil {
		row("location", Location(ca))
		if ca.ErrorType != "" || ca.ErrorMessage != "" {
			row("error", strings.TrimPrefix(ca.ErrorType+": "+ca.ErrorMessage, ": "))
		}
		if n := len(ca.StackTrace); n > 0 {
			row("frames", strconv.Itoa(n))
		}
	}
	if fix := issue.SuggestedFix; fix != nil {
		row("fix", fmt.Sprintf("%s, confidence %.1f", plural(len(fix.Steps), "step"), fix.Confidence))
	}
	if n := len(issue.AcceptanceCriteria); n > 0 {
		done := 0
		for _, c := range issue.AcceptanceCriteria {
			if c.Completed {
				done++
			}
		}
		row("criteria", fmt.Sprintf("%d/%d done", done, n))
	}
	if r.UsedFallback {
		row("fallback", RenderWarn(strings.Join(r.Recovery.FallbacksUsed, ", "))+
			RenderMuted(fmt.Sprintf(" (%s)", plural(r.Recovery.Attempts, "attempt"))))
	}
	return b.String()
}

// RenderCriteria lists acceptance criteria as a checklist.
func RenderCriteria(criteria []types.AcceptanceCriterion) string {
	var b strings.Builder
	for _, c := range criteria {
		box := "[ ]"
		if c.Completed {
			box = RenderPass("[x]")
		}
		fmt.Fprintf(&b, "  %s %s\n", box, TruncateSimple(c.Description, CriterionMaxRunes))
	}
	return b.String()
}

// Location formats a code location as path:start-end (function).
func Location(ca *types.CodeAnalysis) string {
	loc := ca.FilePath
	start, end := types.LineValue(ca.StartLine), types.LineValue(ca.EndLine)
	switch {
	case start > 0 && end > start:
		loc += fmt.Sprintf(":%d-%d", start, end)
	case start > 0:
		loc += ":" + strconv.Itoa(start)
	}
	fn := ca.FunctionName
	if ca.ClassName != "" && fn != "" {
		fn = ca.ClassName + "." + fn
	}
	if fn != "" {
		loc += " (" + fn + ")"
	}
	return loc
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
