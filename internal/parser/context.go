package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/yuin/goldmark/ast"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/timeparsing"
	"github.com/steveyegge/triage/internal/types"
)

var priorityFieldRe = regexp.MustCompile(`(?im)^[ \t>*+-]*\**(?:priority|severity)\**[ \t]*:[ \t]*(.+)$`)

// contextKeys maps the normalized bullet keys of a Context section to the
// field they fill.
var contextKeys = map[string]string{
	"component":   "component",
	"module":      "component",
	"area":        "component",
	"service":     "service",
	"app":         "service",
	"environment": "environment",
	"env":         "environment",
	"due":         "due",
	"due date":    "due",
	"deadline":    "due",
	"priority":    "priority",
}

// ParseContext extracts priority, related files and symbols from the whole
// body and the key/value bullets of the Context section.
func ParseContext(doc *markdown.Document, now time.Time) (types.IssueContext, error) {
	sec, err := markdown.FindSection(doc, markdown.SectionContext)
	if err != nil {
		return types.IssueContext{}, err
	}
	body := doc.Text()

	ctx := types.IssueContext{
		RelatedFiles:   orEmpty(lexicon.ExtractFilePaths(body, lexicon.MaxRelatedFiles)),
		RelatedSymbols: orEmpty(lexicon.ExtractSymbols(lexicon.StripCodeFences(body), lexicon.MaxRelatedSymbols)),
	}

	var explicitPriority string
	if sec != nil {
		for field, value := range contextFields(sec) {
			switch field {
			case "component":
				ctx.Component = value
			case "service":
				ctx.Service = value
			case "environment":
				ctx.Environment = value
			case "due":
				ctx.Due = value
			case "priority":
				explicitPriority = value
			}
		}
	}
	if explicitPriority == "" {
		if m := priorityFieldRe.FindStringSubmatch(body); m != nil {
			explicitPriority = m[1]
		}
	}

	ctx.Priority = lexicon.PriorityFromCues(body)
	if p, ok := lexicon.PriorityFromValue(explicitPriority); ok {
		ctx.Priority = p
	}

	if ctx.Due != "" {
		if t, err := timeparsing.ParseRelativeTime(ctx.Due, now); err == nil {
			ctx.DueAt = &t
		}
	}
	return ctx, nil
}

// contextFields collects "Key: value" bullets from every list in the
// section, keyed by field name. The first bullet for a field wins.
func contextFields(sec *markdown.Section) map[string]string {
	fields := make(map[string]string)
	for _, b := range sec.Blocks {
		l, ok := b.(*ast.List)
		if !ok {
			continue
		}
		for _, item := range sec.ListItems(l) {
			key, value, ok := strings.Cut(item, ":")
			if !ok {
				continue
			}
			field := contextKeys[strings.ToLower(strings.Trim(strings.TrimSpace(key), "*_`"))]
			value = strings.Trim(strings.TrimSpace(value), "*_` ")
			if field == "" || value == "" {
				continue
			}
			if _, dup := fields[field]; !dup {
				fields[field] = value
			}
		}
	}
	return fields
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
