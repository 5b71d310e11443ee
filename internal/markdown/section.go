package markdown

import (
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"

	"github.com/steveyegge/triage/internal/types"
)

// Canonical section names.
const (
	SectionSource             = "Source"
	SectionType               = "Type"
	SectionContext            = "Context"
	SectionProblemDescription = "Problem Description"
	SectionCodeAnalysis       = "Code Analysis"
	SectionSuggestedFix       = "Suggested Fix"
	SectionAcceptanceCriteria = "Acceptance Criteria"
)

// Heading names that are only reachable as synonyms.
const (
	HeadingStackTrace   = "Stack Trace"
	HeadingErrorMessage = "Error Message"
)

// sectionTable is the single place synonyms are registered. For each
// canonical name the canonical heading is tried first, then the synonyms in
// the order listed.
var sectionTable = []struct {
	Canonical string
	Synonyms  []string
}{
	{SectionSource, nil},
	{SectionType, nil},
	{SectionContext, nil},
	{SectionProblemDescription, []string{"Description"}},
	{SectionCodeAnalysis, []string{HeadingStackTrace, HeadingErrorMessage}},
	{SectionSuggestedFix, []string{"Suggested Fix Direction", "Fix", "Solution"}},
	{SectionAcceptanceCriteria, nil},
}

// knownHeadings is every canonical name and synonym, normalized.
var knownHeadings = func() map[string]string {
	m := make(map[string]string)
	for _, e := range sectionTable {
		m[normalizeHeading(e.Canonical)] = e.Canonical
		for _, s := range e.Synonyms {
			m[normalizeHeading(s)] = e.Canonical
		}
	}
	return m
}()

// Names returns the heading names that resolve to canonical, canonical first.
// Returns nil for an unregistered name.
func Names(canonical string) []string {
	for _, e := range sectionTable {
		if e.Canonical == canonical {
			return append([]string{e.Canonical}, e.Synonyms...)
		}
	}
	return nil
}

// IsKnownSection reports whether heading names a registered section or one
// of its synonyms.
func IsKnownSection(heading string) bool {
	_, ok := knownHeadings[normalizeHeading(heading)]
	return ok
}

// CanonicalName resolves a heading to its canonical section name.
func CanonicalName(heading string) (string, bool) {
	c, ok := knownHeadings[normalizeHeading(heading)]
	return c, ok
}

// normalizeHeading lowercases, drops leading decoration (emoji, numbering,
// punctuation) and a trailing colon.
func normalizeHeading(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	s = strings.TrimRight(s, " \t:")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Section is the content under one heading.
type Section struct {
	Name    string // Canonical name used for the lookup
	Heading string // Heading text as written
	Level   int
	Content string // Raw markdown between the heading and the boundary
	Blocks  []ast.Node

	doc   *Document
	start int
}

// FindSection locates canonical (or one of its synonyms). Absence is not an
// error: it returns (nil, nil). A nil document is a PARSE_ERROR.
func FindSection(doc *Document, canonical string) (*Section, error) {
	if doc == nil {
		return nil, types.NewParseError(types.ErrParse, "no document to search for section %q", canonical)
	}
	names := Names(canonical)
	if names == nil {
		names = []string{canonical}
	}
	for _, name := range names {
		if s := doc.find(name); s != nil {
			s.Name = canonical
			return s, nil
		}
	}
	return nil, nil
}

// FindHeading locates a section by one literal heading name, ignoring the
// synonym table.
func FindHeading(doc *Document, name string) (*Section, error) {
	if doc == nil {
		return nil, types.NewParseError(types.ErrParse, "no document to search for heading %q", name)
	}
	return doc.find(name), nil
}

func (d *Document) find(name string) *Section {
	want := normalizeHeading(name)
	for i := range d.Headings {
		if normalizeHeading(d.Headings[i].Text) == want {
			return d.sectionAt(i, name)
		}
	}
	return nil
}

func (d *Document) sectionAt(i int, name string) *Section {
	h := d.Headings[i]
	end := len(d.Source)
	endIdx := len(d.blocks)
	for _, next := range d.Headings[i+1:] {
		if next.Level <= h.Level {
			end = next.start
			endIdx = next.index
			break
		}
	}
	start := h.bodyStart
	if start > end {
		start = end
	}
	return &Section{
		Name:    name,
		Heading: h.Text,
		Level:   h.Level,
		Content: string(d.Source[start:end]),
		Blocks:  d.blocks[h.index+1 : endIdx],
		doc:     d,
		start:   start,
	}
}

// Text returns the section content with surrounding whitespace removed.
func (s *Section) Text() string {
	return strings.TrimSpace(s.Content)
}

// FirstList returns the first list among the section's blocks, or nil.
func (s *Section) FirstList() *ast.List {
	for _, b := range s.Blocks {
		if l, ok := b.(*ast.List); ok {
			return l
		}
	}
	return nil
}

// TextBefore returns the section text that precedes block n.
// It returns the whole section text when n does not belong to the section.
func (s *Section) TextBefore(n ast.Node) string {
	first, ok := firstSegmentStart(n)
	if !ok {
		return s.Text()
	}
	pos := lineStart(s.doc.Source, first)
	if pos < s.start || pos > s.start+len(s.Content) {
		return s.Text()
	}
	return strings.TrimSpace(string(s.doc.Source[s.start:pos]))
}

// ListItems returns the raw markdown of each item of l, one string per item,
// with the list marker and any task checkbox removed.
func (s *Section) ListItems(l *ast.List) []string {
	return ListItems(l, s.doc.Source)
}

// CodeBlocks returns the code blocks inside the section.
func (s *Section) CodeBlocks() []CodeBlock {
	var out []CodeBlock
	for _, b := range s.Blocks {
		_ = ast.Walk(b, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			switch cb := n.(type) {
			case *ast.FencedCodeBlock:
				out = append(out, CodeBlock{
					Language: string(cb.Language(s.doc.Source)),
					Content:  linesText(cb, s.doc.Source),
				})
				return ast.WalkSkipChildren, nil
			case *ast.CodeBlock:
				out = append(out, CodeBlock{Content: linesText(cb, s.doc.Source)})
				return ast.WalkSkipChildren, nil
			}
			return ast.WalkContinue, nil
		})
	}
	return out
}

// ListItems returns the text of each item of l. Each item contributes the
// raw source of its first text block, so inline markup such as `code` is
// kept verbatim.
func ListItems(l *ast.List, src []byte) []string {
	if l == nil {
		return nil
	}
	var items []string
	for c := l.FirstChild(); c != nil; c = c.NextSibling() {
		item, ok := c.(*ast.ListItem)
		if !ok {
			continue
		}
		text := ""
		for b := item.FirstChild(); b != nil; b = b.NextSibling() {
			if b.Lines().Len() == 0 {
				continue
			}
			text = strings.TrimSpace(joinLines(b, src))
			break
		}
		text = stripTaskBox(text)
		if text != "" {
			items = append(items, text)
		}
	}
	return items
}

func joinLines(n ast.Node, src []byte) string {
	var parts []string
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		parts = append(parts, strings.TrimSpace(string(seg.Value(src))))
	}
	return strings.Join(parts, " ")
}

func stripTaskBox(s string) string {
	for _, box := range []string{"[ ]", "[x]", "[X]"} {
		if strings.HasPrefix(s, box) {
			return strings.TrimSpace(s[len(box):])
		}
	}
	return s
}
