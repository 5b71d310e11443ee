package github

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// MaxTitleRunes is the longest title BuildIssue produces.
const MaxTitleRunes = 80

var headingLineRe = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}[ \t]+(.+?)[ \t#]*$`)

// ParseInput turns a fetched issue into parser input. The title becomes a
// top-level heading; Source, Type and Priority are appended from the issue
// URL and labels when the body does not state them itself.
func ParseInput(is *Issue) string {
	var b strings.Builder
	if is.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", is.Title)
	}
	b.WriteString(strings.TrimSpace(is.Body))

	have := headings(is.Body)
	if !have[markdown.SectionSource] {
		fmt.Fprintf(&b, "\n\n## %s\n\nGitHub #%d %s", markdown.SectionSource, is.Number, is.HTMLURL)
		if p, ok := PriorityFromLabels(is.Labels); ok && !hasPriorityField(is.Body) {
			fmt.Fprintf(&b, "\n\nPriority: %s", p)
		}
	}
	if !have[markdown.SectionType] {
		if t, ok := TypeFromLabels(is.Labels); ok {
			fmt.Fprintf(&b, "\n\n## %s\n\n%s", markdown.SectionType, t)
		}
	}
	b.WriteString("\n")
	return b.String()
}

func headings(body string) map[string]bool {
	have := make(map[string]bool)
	for _, m := range headingLineRe.FindAllStringSubmatch(body, -1) {
		if c, ok := markdown.CanonicalName(m[1]); ok {
			have[c] = true
		}
	}
	return have
}

var priorityLineRe = regexp.MustCompile(`(?im)^[ \t>*+-]*\**(?:priority|severity)\**[ \t]*:`)

func hasPriorityField(body string) bool {
	return priorityLineRe.MatchString(body)
}

// BuildIssue renders a parsed issue as a GitHub issue: a title from the
// problem description, the canonical section body, and scoped labels.
func BuildIssue(p types.ParsedIssue) NewIssue {
	return NewIssue{
		Title:  Title(p),
		Body:   FormatBody(p),
		Labels: Labels(p),
	}
}

// Title is the first sentence of the problem description, prefixed with
// the error type for bugs that carry one.
func Title(p types.ParsedIssue) string {
	title := firstSentence(p.ProblemDescription)
	if ca := p.CodeAnalysis; ca != nil && p.Type == types.TypeBug && ca.ErrorType != "" &&
		!strings.Contains(title, ca.ErrorType) {
		title = ca.ErrorType + ": " + title
	}
	if title == "" {
		title = fmt.Sprintf("Untitled %s", p.Type)
	}
	if utf8.RuneCountInString(title) > MaxTitleRunes {
		title = string([]rune(title)[:MaxTitleRunes-3]) + "..."
	}
	return title
}

func firstSentence(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\n"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ". "); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), ".")
}

// Labels returns the scoped labels for p: type, priority, source and,
// when known, component.
func Labels(p types.ParsedIssue) []string {
	var labels []string
	if p.Type != "" {
		labels = append(labels, "type:"+string(p.Type))
	}
	if p.Context.Priority != "" {
		labels = append(labels, "priority:"+string(p.Context.Priority))
	}
	if p.Source != "" && p.Source != types.SourceManual {
		labels = append(labels, "source:"+string(p.Source))
	}
	if c := strings.ToLower(strings.TrimSpace(p.Context.Component)); c != "" {
		labels = append(labels, "component:"+c)
	}
	return labels
}

// FormatBody writes p in the canonical section layout the parser reads.
// Empty sections are left out.
func FormatBody(p types.ParsedIssue) string {
	var b strings.Builder
	section := func(name string) {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "## %s\n\n", name)
	}

	section(markdown.SectionSource)
	src := sourceName(p.Source)
	if p.SourceID != "" {
		src += " #" + p.SourceID
	}
	if p.SourceURL != "" {
		src += " " + p.SourceURL
	}
	b.WriteString(src + "\n")

	section(markdown.SectionType)
	b.WriteString(string(p.Type) + "\n")

	section(markdown.SectionContext)
	ctx := p.Context
	field(&b, "Priority", string(ctx.Priority))
	field(&b, "Component", ctx.Component)
	field(&b, "Service", ctx.Service)
	field(&b, "Environment", ctx.Environment)
	if ctx.DueAt != nil {
		field(&b, "Due", ctx.DueAt.Format("2006-01-02"))
	} else {
		field(&b, "Due", ctx.Due)
	}
	field(&b, "Related files", codeList(ctx.RelatedFiles))
	field(&b, "Related symbols", codeList(ctx.RelatedSymbols))

	section(markdown.SectionProblemDescription)
	b.WriteString(strings.TrimSpace(p.ProblemDescription) + "\n")

	if ca := p.CodeAnalysis; ca != nil {
		section(markdown.SectionCodeAnalysis)
		writeCodeAnalysis(&b, ca)
	}

	if fix := p.SuggestedFix; fix != nil {
		section(markdown.SectionSuggestedFix)
		if fix.Description != "" {
			b.WriteString(fix.Description + "\n")
		}
		if len(fix.Steps) > 0 {
			b.WriteString("\n")
			for i, s := range fix.Steps {
				fmt.Fprintf(&b, "%d. %s\n", i+1, s)
			}
		}
	}

	if len(p.AcceptanceCriteria) > 0 {
		section(markdown.SectionAcceptanceCriteria)
		for _, c := range p.AcceptanceCriteria {
			if c.Scenario != "" {
				continue
			}
			box := " "
			if c.Completed {
				box = "x"
			}
			fmt.Fprintf(&b, "- [%s] %s\n", box, c.Description)
		}
		for _, c := range p.AcceptanceCriteria {
			if c.Scenario != "" {
				fmt.Fprintf(&b, "\nScenario: %s\n%s\n", c.Description, c.Scenario)
			}
		}
	}
	return b.String()
}

func writeCodeAnalysis(b *strings.Builder, ca *types.CodeAnalysis) {
	field(b, "File", ca.FilePath)
	start, end := types.LineValue(ca.StartLine), types.LineValue(ca.EndLine)
	switch {
	case start > 0 && end > start:
		field(b, "Location", fmt.Sprintf("lines %d-%d", start, end))
	case start > 0:
		field(b, "Location", fmt.Sprintf("line %d", start))
	}
	field(b, "Class", ca.ClassName)
	field(b, "Function", ca.FunctionName)
	if ca.ErrorType != "" || ca.ErrorMessage != "" {
		b.WriteString("\n" + strings.TrimPrefix(ca.ErrorType+": "+ca.ErrorMessage, ": ") + "\n")
	}
	if ca.Snippet != "" {
		fmt.Fprintf(b, "\n```%s\n%s\n```\n", ca.Language, strings.TrimRight(ca.Snippet, "\n"))
	}
	if len(ca.StackTrace) > 0 {
		b.WriteString("\n```\n")
		for _, f := range ca.StackTrace {
			loc := fmt.Sprintf("%s:%d", f.File, f.Line)
			if f.Column > 0 {
				loc += fmt.Sprintf(":%d", f.Column)
			}
			if f.Function != "" {
				fmt.Fprintf(b, "    at %s (%s)\n", f.Function, loc)
			} else {
				fmt.Fprintf(b, "    at %s\n", loc)
			}
		}
		b.WriteString("```\n")
	}
}

func field(b *strings.Builder, key, value string) {
	if value != "" {
		fmt.Fprintf(b, "- %s: %s\n", key, value)
	}
}

func codeList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "`" + s + "`"
	}
	return strings.Join(quoted, ", ")
}

func sourceName(s types.Source) string {
	switch s {
	case types.SourceGitHub:
		return "GitHub"
	case types.SourceSentry:
		return "Sentry"
	case types.SourceAsana:
		return "Asana"
	}
	return "Manual"
}
