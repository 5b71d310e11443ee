package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/triage/internal/types"
)

func TestRenderValidation(t *testing.T) {
	t.Setenv("TRIAGE_NO_EMOJI", "1")

	got := RenderValidation(types.ValidationResult{Valid: true})
	assert.Contains(t, got, "valid")
	assert.NotContains(t, got, "invalid")

	got = RenderValidation(types.ValidationResult{
		Valid: true,
		Warnings: []types.ValidationIssue{
			{Field: "context.related_files", Message: "no related files", Code: "NO_RELATED_FILES"},
		},
	})
	assert.Contains(t, got, "valid with 1 warning")
	assert.Contains(t, got, "context.related_files: no related files")
	assert.Contains(t, got, "[NO_RELATED_FILES]")

	got = RenderValidation(types.ValidationResult{
		Errors: []types.ValidationIssue{
			{Field: "type", Message: "unknown type", Code: "INVALID_TYPE"},
			{Field: "problem_description", Message: "empty", Code: "EMPTY_DESCRIPTION"},
		},
		Warnings: []types.ValidationIssue{{Field: "f", Message: "m", Code: "W"}},
	})
	lines := strings.Split(strings.TrimSpace(got), "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, lines[0], "invalid: 2 errors, 1 warning")
	assert.Contains(t, lines[1], "type: unknown type")
	assert.Contains(t, lines[3], "f: m")
}

func TestRenderSummary(t *testing.T) {
	due := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	r := &types.ParseResult{
		Issue: types.ParsedIssue{
			Source:   types.SourceGitHub,
			SourceID: "42",
			Type:     types.TypeBug,
			Context: types.IssueContext{
				Priority:     types.PriorityHigh,
				Component:    "auth",
				DueAt:        &due,
				Due:          "Feb 1, 2025",
				RelatedFiles: []string{"src/auth.ts", "src/token.ts"},
			},
			CodeAnalysis: &types.CodeAnalysis{
				FilePath: "src/auth.ts", StartLine: types.Line(40), EndLine: types.Line(52),
				FunctionName: "validate", ClassName: "Auth",
				ErrorType: "TypeError", ErrorMessage: "x is undefined",
			},
			SuggestedFix: &types.SuggestedFix{Steps: []string{"a", "b"}, Confidence: 0.7},
			AcceptanceCriteria: []types.AcceptanceCriterion{
				{Description: "one", Completed: true},
				{Description: "two"},
			},
		},
		UsedFallback: true,
		Recovery:     types.RecoverySummary{Attempts: 2, FallbacksUsed: []string{"apply-defaults"}},
	}

	got := RenderSummary(r)
	for _, want := range []string{
		"github #42",
		"bug",
		"high",
		"auth",
		"2025-02-01",
		"src/auth.ts, src/token.ts",
		"src/auth.ts:40-52 (Auth.validate)",
		"TypeError: x is undefined",
		"2 steps, confidence 0.7",
		"1/2 done",
		"apply-defaults (2 attempts)",
	} {
		assert.Contains(t, got, want)
	}
	assert.NotContains(t, got, "service")
}

func TestLocation(t *testing.T) {
	tests := []struct {
		ca   types.CodeAnalysis
		want string
	}{
		{types.CodeAnalysis{FilePath: "a.go"}, "a.go"},
		{types.CodeAnalysis{FilePath: "a.go", StartLine: types.Line(7)}, "a.go:7"},
		{types.CodeAnalysis{FilePath: "a.go", StartLine: types.Line(7), EndLine: types.Line(7), FunctionName: "run"}, "a.go:7 (run)"},
		{types.CodeAnalysis{FilePath: "a.go", StartLine: types.Line(7), EndLine: types.Line(9)}, "a.go:7-9"},
	}
	for _, tt := range tests {
		if got := Location(&tt.ca); got != tt.want {
			t.Errorf("Location(%+v) = %q, want %q", tt.ca, got, tt.want)
		}
	}
}

func TestRenderCriteria(t *testing.T) {
	got := RenderCriteria([]types.AcceptanceCriterion{
		{Description: "Login works", Completed: true},
		{Description: strings.Repeat("x", 100)},
	})
	assert.Contains(t, got, "[x] Login works")
	assert.Contains(t, got, "[ ] "+strings.Repeat("x", CriterionMaxRunes-3)+"...")
}
