package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

var refNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func TestParseSource(t *testing.T) {
	tests := []struct {
		name string
		body string
		want SourceInfo
	}{
		{
			name: "section with url",
			body: "## Source\nSentry\nhttps://acme.sentry.io/issues/4242/\n\n## Problem Description\nGitHub users see it too.\n",
			want: SourceInfo{Source: types.SourceSentry, ID: "4242", URL: "https://acme.sentry.io/issues/4242/"},
		},
		{
			name: "explicit field beats keywords",
			body: "Source: manual\n\nThe Sentry alert fired twice.\n",
			want: SourceInfo{Source: types.SourceManual},
		},
		{
			name: "inferred from url",
			body: "Crash reported via https://github.com/o/r/issues/12\n",
			want: SourceInfo{Source: types.SourceGitHub, ID: "12", URL: "https://github.com/o/r/issues/12"},
		},
		{
			name: "explicit id field",
			body: "## Source\nasana\n\nTask ID: 1203456789\n",
			want: SourceInfo{Source: types.SourceAsana, ID: "1203456789"},
		},
		{
			name: "default",
			body: "Nothing to see here.\n",
			want: SourceInfo{Source: types.SourceManual},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSource(mustParse(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name string
		body string
		want types.IssueType
	}{
		{"section wins", "## Type\nfeature\n\n## Problem Description\nThe app crashes with an error.\n", types.TypeFeature},
		{"keywords from body", "The app crashes with an exception.\n", types.TypeBug},
		{"empty section falls back to body", "## Type\n\n## Problem Description\nAdd support for a new export.\n", types.TypeFeature},
		{"label in body", "Fix the wording.\n\nType: docs\n", types.TypeDocs},
		{"nothing", "lorem ipsum\n", types.TypeChore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseType(mustParse(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseContext(t *testing.T) {
	body := "Priority: low\n\nThis is urgent for the team.\n\n" +
		"## Context\n" +
		"- Component: auth\n" +
		"- Env: production\n" +
		"- Due: 2025-02-01\n" +
		"- Component: billing\n\n" +
		"The `validateToken` helper in src/auth/login.ts calls refreshSession().\n\n" +
		"```js\nignored(1)\n```\n"

	ctx, err := ParseContext(mustParse(t, body), refNow)
	require.NoError(t, err)

	assert.Equal(t, types.PriorityLow, ctx.Priority)
	assert.Equal(t, "auth", ctx.Component)
	assert.Equal(t, "production", ctx.Environment)
	assert.Equal(t, "2025-02-01", ctx.Due)
	require.NotNil(t, ctx.DueAt)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), *ctx.DueAt)
	assert.Equal(t, []string{"src/auth/login.ts"}, ctx.RelatedFiles)
	assert.Equal(t, []string{"validateToken", "refreshSession"}, ctx.RelatedSymbols)
}

func TestParseContextRelativeDue(t *testing.T) {
	ctx, err := ParseContext(mustParse(t, "## Context\n- Deadline: +2w\n- App: api\n"), refNow)
	require.NoError(t, err)
	assert.Equal(t, "api", ctx.Service)
	require.NotNil(t, ctx.DueAt)
	assert.Equal(t, refNow.AddDate(0, 0, 14), *ctx.DueAt)

	ctx, err = ParseContext(mustParse(t, "## Context\n- Due: n/a\n"), refNow)
	require.NoError(t, err)
	assert.Equal(t, "n/a", ctx.Due)
	assert.Nil(t, ctx.DueAt)
}

func TestParseContextDefaults(t *testing.T) {
	ctx, err := ParseContext(mustParse(t, "Plain words.\n"), refNow)
	require.NoError(t, err)
	assert.Equal(t, types.PriorityMedium, ctx.Priority)
	assert.NotNil(t, ctx.RelatedFiles)
	assert.Empty(t, ctx.RelatedFiles)
	assert.NotNil(t, ctx.RelatedSymbols)
	assert.Empty(t, ctx.RelatedSymbols)
}

func TestParseProblemDescription(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"section", "## Problem Description\n\nAPI returns 500 error.\n\n## Next Section\n", "API returns 500 error."},
		{"synonym", "## Description\nBroken footer links.\n", "Broken footer links."},
		{"preamble", "Users cannot log in.\n\n## Type\nbug\n", "Users cannot log in."},
		{"empty section uses preamble", "Intro text here.\n\n## Problem Description\n\n## Type\nbug\n", "Intro text here."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseProblemDescription(mustParse(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseProblemDescriptionMissing(t *testing.T) {
	_, err := ParseProblemDescription(mustParse(t, "## Type\nbug\n"))
	require.Error(t, err)

	var pe *types.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, types.ErrMissingSection, pe.Code)
	assert.Equal(t, markdown.SectionProblemDescription, pe.Section)
}

func TestParseProblemFromText(t *testing.T) {
	assert.Equal(t, strings.Repeat("x", 500), ParseProblemFromText(strings.Repeat("x", 1000)))
	assert.Equal(t, "Intro\n\n## Notes\nmore", ParseProblemFromText("Intro\n\n## Notes\nmore\n\n## Type\nbug\n"))
	assert.Equal(t, "", ParseProblemFromText("## Type\nbug\n"))
	assert.Equal(t, "", ParseProblemFromText(""))
}

func TestParseSuggestedFix(t *testing.T) {
	fix, err := ParseSuggestedFix(mustParse(t, "## Suggested Fix\nUpdate the token handler.\n\n"+
		"1. Validate token\n2. Refresh session\n3. Retry request\n"))
	require.NoError(t, err)
	require.NotNil(t, fix)
	assert.Equal(t, "Update the token handler.", fix.Description)
	assert.Equal(t, []string{"Validate token", "Refresh session", "Retry request"}, fix.Steps)
	assert.Equal(t, 0.5, fix.Confidence)

	fix, err = ParseSuggestedFix(mustParse(t, "## Fix\nThis should probably be cached.\n"))
	require.NoError(t, err)
	require.NotNil(t, fix)
	assert.Equal(t, "This should probably be cached.", fix.Description)
	assert.NotNil(t, fix.Steps)
	assert.Empty(t, fix.Steps)
	assert.Equal(t, 0.7, fix.Confidence)

	for _, body := range []string{"No fix here.\n", "## Suggested Fix\n\n## Type\nbug\n"} {
		fix, err = ParseSuggestedFix(mustParse(t, body))
		require.NoError(t, err)
		assert.Nil(t, fix, body)
	}
}

func TestParseAcceptanceCriteria(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []types.AcceptanceCriterion
	}{
		{
			name: "checkboxes",
			body: "## Acceptance Criteria\n- [ ] Login works\n- [x] Tests pass\n",
			want: []types.AcceptanceCriterion{
				{Description: "Login works"},
				{Description: "Tests pass", Completed: true},
			},
		},
		{
			name: "plain list",
			body: "## Acceptance Criteria\n- Returns 200\n- Logs the request\n",
			want: []types.AcceptanceCriterion{
				{Description: "Returns 200"},
				{Description: "Logs the request"},
			},
		},
		{
			name: "scenario",
			body: "## Acceptance Criteria\nGiven a user\nWhen they log in\nThen they see the dashboard\n",
			want: []types.AcceptanceCriterion{
				{Description: "they see the dashboard", Scenario: "Given a user\nWhen they log in\nThen they see the dashboard"},
			},
		},
		{
			name: "inline scenario",
			body: "## Acceptance Criteria\nGiven an expired token, when the API is called, then a 401 is returned.\n",
			want: []types.AcceptanceCriterion{
				{Description: "a 401 is returned", Scenario: "Given an expired token\nWhen the API is called\nThen a 401 is returned"},
			},
		},
		{
			name: "no section scans body",
			body: "Fix it.\n\n- [ ] Done when green\n",
			want: []types.AcceptanceCriterion{{Description: "Done when green"}},
		},
		{
			name: "none",
			body: "Nothing to check.\n",
			want: []types.AcceptanceCriterion{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAcceptanceCriteria(mustParse(t, tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
