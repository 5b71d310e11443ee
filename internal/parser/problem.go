package parser

import (
	"strings"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// ParseProblemDescription returns the Problem Description section, or the
// text before the first known section heading when that section is absent.
// With neither, it fails with MISSING_SECTION.
func ParseProblemDescription(doc *markdown.Document) (string, error) {
	sec, err := markdown.FindSection(doc, markdown.SectionProblemDescription)
	if err != nil {
		return "", err
	}
	if sec != nil && sec.Text() != "" {
		return sec.Text(), nil
	}
	if desc := problemFromDocument(doc); desc != "" {
		return desc, nil
	}
	return "", types.NewParseError(types.ErrMissingSection,
		"no problem description section and no text before the first section").
		InSection(markdown.SectionProblemDescription)
}

// ParseProblemFromText returns everything before the first heading that
// names a known section, trimmed and cut to lexicon.MaxDescriptionRunes.
// Headings with unknown names are part of the description.
func ParseProblemFromText(body string) string {
	doc, err := markdown.Parse([]byte(body))
	if err != nil {
		return lexicon.Truncate(strings.TrimSpace(body), lexicon.MaxDescriptionRunes)
	}
	return problemFromDocument(doc)
}

func problemFromDocument(doc *markdown.Document) string {
	pre := strings.TrimSpace(doc.Preamble(markdown.IsKnownSection))
	return lexicon.Truncate(pre, lexicon.MaxDescriptionRunes)
}
