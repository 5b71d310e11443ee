package parser

import (
	"regexp"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// SourceInfo is the output of ParseSource.
type SourceInfo struct {
	Source types.Source
	ID     string
	URL    string
}

var (
	sourceFieldRe = regexp.MustCompile(`(?im)^[ \t>*+-]*\**source\**[ \t]*:[ \t]*(.+)$`)
	manualRe      = regexp.MustCompile(`(?i)\bmanual\b`)
)

// ParseSource determines where the issue came from. Precedence: a Source
// section (or "Source:" field), then keyword mentions anywhere in the body,
// then manual. The URL and ID are looked up in the explicit text first.
func ParseSource(doc *markdown.Document) (SourceInfo, error) {
	sec, err := markdown.FindSection(doc, markdown.SectionSource)
	if err != nil {
		return SourceInfo{}, err
	}
	body := doc.Text()

	var explicit string
	if sec != nil {
		explicit = sec.Text()
	} else if m := sourceFieldRe.FindStringSubmatch(body); m != nil {
		explicit = m[1]
	}

	src, ok := sourceFromText(explicit)
	if !ok {
		src = lexicon.InferSource(body)
	}

	info := SourceInfo{Source: src}
	for _, text := range []string{explicit, body} {
		if text == "" {
			continue
		}
		if info.URL == "" {
			info.URL = lexicon.SourceURL(src, text)
		}
		if info.ID == "" {
			info.ID = lexicon.SourceID(src, text, info.URL)
		}
	}
	return info, nil
}

func sourceFromText(text string) (types.Source, bool) {
	if text == "" {
		return "", false
	}
	if s, ok := lexicon.SourceFromKeywords(text); ok {
		return s, true
	}
	if manualRe.MatchString(text) {
		return types.SourceManual, true
	}
	return "", false
}
