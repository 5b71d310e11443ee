package parser

import (
	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// ParseType classifies the issue. The Type section is the input when it has
// any text; otherwise the whole body is.
func ParseType(doc *markdown.Document) (types.IssueType, error) {
	sec, err := markdown.FindSection(doc, markdown.SectionType)
	if err != nil {
		return "", err
	}
	text := doc.Text()
	if sec != nil && sec.Text() != "" {
		text = sec.Text()
	}
	return lexicon.InferType(text), nil
}
