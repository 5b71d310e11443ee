package parser

import (
	"github.com/yuin/goldmark/ast"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// ParseAcceptanceCriteria collects checkbox items and Given/When/Then
// scenarios from the Acceptance Criteria section, or from the whole body
// when there is no such section. A section that uses neither form
// contributes its plain list items.
func ParseAcceptanceCriteria(doc *markdown.Document) ([]types.AcceptanceCriterion, error) {
	sec, err := markdown.FindSection(doc, markdown.SectionAcceptanceCriteria)
	if err != nil {
		return nil, err
	}

	text := doc.Text()
	if sec != nil {
		text = sec.Content
	}
	criteria := lexicon.ExtractCriteria(text)

	if len(criteria) == 0 && sec != nil {
		for _, b := range sec.Blocks {
			l, ok := b.(*ast.List)
			if !ok {
				continue
			}
			for _, item := range sec.ListItems(l) {
				if len(criteria) == lexicon.MaxAcceptanceCriteria {
					break
				}
				criteria = append(criteria, types.AcceptanceCriterion{Description: item})
			}
		}
	}
	if criteria == nil {
		criteria = []types.AcceptanceCriterion{}
	}
	return criteria, nil
}
