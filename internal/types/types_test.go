package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestEnumValidity(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
		check func() bool
	}{
		{"source asana", true, SourceAsana.IsValid},
		{"source sentry", true, SourceSentry.IsValid},
		{"source manual", true, SourceManual.IsValid},
		{"source github", true, SourceGitHub.IsValid},
		{"source jira", false, Source("jira").IsValid},
		{"source empty", false, Source("").IsValid},
		{"type bug", true, TypeBug.IsValid},
		{"type feature", true, TypeFeature.IsValid},
		{"type refactor", true, TypeRefactor.IsValid},
		{"type docs", true, TypeDocs.IsValid},
		{"type test", true, TypeTest.IsValid},
		{"type chore", true, TypeChore.IsValid},
		{"type epic", false, IssueType("epic").IsValid},
		{"priority critical", true, PriorityCritical.IsValid},
		{"priority low", true, PriorityLow.IsValid},
		{"priority P1", false, Priority("P1").IsValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.check(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestPriorityRank(t *testing.T) {
	order := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow, Priority("bogus")}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank before %s", order[i-1], order[i])
		}
	}
}

func TestParseError(t *testing.T) {
	cause := errors.New("boom")
	err := WrapParseError(ErrAST, cause, "building tree for %d bytes", 12)

	if !errors.Is(err, cause) {
		t.Error("ParseError should unwrap to its cause")
	}
	if got := err.Error(); !strings.HasPrefix(got, "AST_ERROR: building tree for 12 bytes") {
		t.Errorf("Error() = %q", got)
	}

	scoped := err.InSection("Code Analysis")
	if err.Section != "" {
		t.Error("InSection must not modify the receiver")
	}
	if !strings.Contains(scoped.Error(), "Code Analysis: building tree") {
		t.Errorf("scoped Error() = %q", scoped.Error())
	}

	wrapped := fmt.Errorf("parse: %w", scoped)
	if got := CodeOf(wrapped); got != ErrAST {
		t.Errorf("CodeOf(wrapped) = %q, want %q", got, ErrAST)
	}
	if got := CodeOf(cause); got != "" {
		t.Errorf("CodeOf(plain error) = %q, want empty", got)
	}

	sum := scoped.Summary()
	if sum.Code != ErrAST || sum.Section != "Code Analysis" || !strings.Contains(sum.Message, "boom") {
		t.Errorf("Summary() = %+v", sum)
	}
}

func TestValidationResultHelpers(t *testing.T) {
	r := ValidationResult{
		Errors:   []ValidationIssue{{Field: "type", Code: "INVALID_TYPE"}, {Field: "source", Code: "INVALID_SOURCE"}},
		Warnings: []ValidationIssue{{Field: "acceptance_criteria", Code: "NO_ACCEPTANCE_CRITERIA"}},
	}
	if !r.HasCode("INVALID_SOURCE") || !r.HasCode("NO_ACCEPTANCE_CRITERIA") {
		t.Error("HasCode should find both errors and warnings")
	}
	if r.HasCode("INVALID_PRIORITY") {
		t.Error("HasCode found a code that is not present")
	}
	if got := strings.Join(r.ErrorFields(), ","); got != "type,source" {
		t.Errorf("ErrorFields() = %q", got)
	}
}
