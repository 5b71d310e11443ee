package markdown

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/types"
)

func mustParse(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestFindSectionBoundary(t *testing.T) {
	doc := mustParse(t, "## Problem Description\n\nAPI returns 500 error.\n\n## Next Section\n")

	sec, err := FindSection(doc, SectionProblemDescription)
	require.NoError(t, err)
	require.NotNil(t, sec)

	assert.Equal(t, SectionProblemDescription, sec.Name)
	assert.Equal(t, 2, sec.Level)
	assert.Equal(t, "API returns 500 error.", sec.Text())
	assert.NotContains(t, sec.Content, "Next Section")
}

func TestFindSectionSynonyms(t *testing.T) {
	tests := []struct {
		name      string
		src       string
		canonical string
		heading   string
	}{
		{"description", "# Login bug\n\n## Description\nUsers cannot log in.\n", SectionProblemDescription, "Description"},
		{"fix direction", "## Suggested Fix Direction\nRetry.\n", SectionSuggestedFix, "Suggested Fix Direction"},
		{"solution", "## Solution\nRetry.\n", SectionSuggestedFix, "Solution"},
		{"stack trace", "## Stack Trace\n    at foo (a.js:1:2)\n", SectionCodeAnalysis, "Stack Trace"},
		{"case and colon", "## acceptance criteria:\n- [ ] works\n", SectionAcceptanceCriteria, "acceptance criteria:"},
		{"emoji prefix", "## 🐛 Problem Description\nBroken.\n", SectionProblemDescription, "🐛 Problem Description"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.src)
			sec, err := FindSection(doc, tt.canonical)
			require.NoError(t, err)
			require.NotNil(t, sec, "section %q not found", tt.canonical)
			assert.Equal(t, tt.canonical, sec.Name)
			assert.Equal(t, tt.heading, sec.Heading)
		})
	}
}

func TestFindSectionPrefersCanonical(t *testing.T) {
	doc := mustParse(t, "## Error Message\nTypeError\n\n## Code Analysis\nsrc/app.ts line 4\n")
	sec, err := FindSection(doc, SectionCodeAnalysis)
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "Code Analysis", sec.Heading)
}

func TestFindSectionNestedHeadings(t *testing.T) {
	src := "## Suggested Fix\nIntro\n### Details\nMore detail\n## Acceptance Criteria\n- [ ] done\n"
	doc := mustParse(t, src)

	sec, err := FindSection(doc, SectionSuggestedFix)
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Contains(t, sec.Content, "### Details")
	assert.Contains(t, sec.Content, "More detail")
	assert.NotContains(t, sec.Content, "done")
}

func TestFindSectionAbsent(t *testing.T) {
	doc := mustParse(t, "Just some text without headings.")
	sec, err := FindSection(doc, SectionAcceptanceCriteria)
	assert.NoError(t, err)
	assert.Nil(t, sec)
}

func TestFindSectionNilDocument(t *testing.T) {
	_, err := FindSection(nil, SectionType)
	require.Error(t, err)
	assert.Equal(t, types.ErrParse, types.CodeOf(err))
}

func TestFindHeadingIgnoresSynonyms(t *testing.T) {
	doc := mustParse(t, "## Stack Trace\nat x (a.js:1:1)\n")
	sec, err := FindHeading(doc, SectionCodeAnalysis)
	require.NoError(t, err)
	assert.Nil(t, sec)

	sec, err = FindHeading(doc, HeadingStackTrace)
	require.NoError(t, err)
	assert.NotNil(t, sec)
}

func TestSetextHeading(t *testing.T) {
	doc := mustParse(t, "Problem Description\n===================\n\nBody text\n")
	sec, err := FindSection(doc, SectionProblemDescription)
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "Body text", sec.Text())
}

func TestSectionListHelpers(t *testing.T) {
	src := "## Suggested Fix\n\nWe should validate `token` first.\n\n1. Add token validation\n2. Update error handling\n3. Test the changes\n"
	doc := mustParse(t, src)
	sec, err := FindSection(doc, SectionSuggestedFix)
	require.NoError(t, err)
	require.NotNil(t, sec)

	list := sec.FirstList()
	require.NotNil(t, list)
	assert.True(t, list.IsOrdered())
	assert.Equal(t, "We should validate `token` first.", sec.TextBefore(list))
	assert.Equal(t, []string{"Add token validation", "Update error handling", "Test the changes"}, sec.ListItems(list))
}

func TestListItemsStripCheckboxes(t *testing.T) {
	doc := mustParse(t, "## Acceptance Criteria\n- [ ] Fix login\n- [x] Update tests\n")
	sec, err := FindSection(doc, SectionAcceptanceCriteria)
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, []string{"Fix login", "Update tests"}, sec.ListItems(sec.FirstList()))
}

func TestCodeBlocks(t *testing.T) {
	src := "Intro\n\n```go\nfmt.Println(\"hi\")\n```\n\n## Code Analysis\n\n```\npanic: boom\n```\n"
	doc := mustParse(t, src)

	blocks := doc.CodeBlocks()
	require.Len(t, blocks, 2)
	assert.Equal(t, "go", blocks[0].Language)
	assert.Equal(t, `fmt.Println("hi")`, blocks[0].Content)

	sec, err := FindSection(doc, SectionCodeAnalysis)
	require.NoError(t, err)
	require.NotNil(t, sec)
	inner := sec.CodeBlocks()
	require.Len(t, inner, 1)
	assert.Equal(t, "panic: boom", inner[0].Content)
}

func TestIsKnownSection(t *testing.T) {
	tests := map[string]bool{
		"Source":                   true,
		"suggested fix direction:": true,
		"  Fix ":                   true,
		"Error Message":            true,
		"1. Acceptance Criteria":   true,
		"Steps to Reproduce":       false,
		"Next Section":             false,
		"":                         false,
	}
	for heading, want := range tests {
		if got := IsKnownSection(heading); got != want {
			t.Errorf("IsKnownSection(%q) = %v, want %v", heading, got, want)
		}
	}

	if c, ok := CanonicalName("Solution"); !ok || c != SectionSuggestedFix {
		t.Errorf("CanonicalName(Solution) = %q, %v", c, ok)
	}
}

func TestRawSections(t *testing.T) {
	src := "# Title\n\nintro\n\n## Type\nbug\n\n## Notes\nfree text\n"
	doc := mustParse(t, src)
	raw := doc.RawSections()

	assert.Equal(t, "bug", raw["Type"])
	assert.Equal(t, "free text", raw["Notes"])
	assert.True(t, strings.Contains(raw["Title"], "intro"))
}

func TestEmptyHeading(t *testing.T) {
	doc := mustParse(t, "## Type\nbug\n\n##\n\n## Source\nsentry\n")
	sec, err := FindSection(doc, SectionType)
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "bug", sec.Text())

	sec, err = FindSection(doc, SectionSource)
	require.NoError(t, err)
	require.NotNil(t, sec)
	assert.Equal(t, "sentry", sec.Text())
}

func TestPreamble(t *testing.T) {
	doc := mustParse(t, "Login fails.\n\n## Notes\nseen twice\n\n## Type\nbug\n")

	assert.Equal(t, "Login fails.\n\n## Notes\nseen twice\n\n", doc.Preamble(IsKnownSection))
	assert.Equal(t, "Login fails.\n\n", doc.Preamble(func(string) bool { return true }))
	assert.Equal(t, doc.Text(), doc.Preamble(func(string) bool { return false }))
}
