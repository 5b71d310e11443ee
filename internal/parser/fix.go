package parser

import (
	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// ParseSuggestedFix reads the Suggested Fix section: the prose before its
// first list is the description, that list's items are the steps. Returns
// nil when the section is absent or empty.
func ParseSuggestedFix(doc *markdown.Document) (*types.SuggestedFix, error) {
	sec, err := markdown.FindSection(doc, markdown.SectionSuggestedFix)
	if err != nil || sec == nil || sec.Text() == "" {
		return nil, err
	}

	fix := &types.SuggestedFix{
		Description: sec.Text(),
		Steps:       []string{},
		Confidence:  lexicon.FixConfidence(sec.Text()),
	}
	if l := sec.FirstList(); l != nil {
		fix.Description = sec.TextBefore(l)
		fix.Steps = orEmpty(sec.ListItems(l))
	}
	return fix, nil
}
