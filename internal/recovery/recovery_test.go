package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/validation"
)

func TestRecordDoesNotMutate(t *testing.T) {
	base := NewContext()
	errA := types.NewParseError(types.ErrParse, "a")

	withErr := base.RecordError(errA)
	assert.Equal(t, 0, base.Attempts())
	assert.Empty(t, base.Errors())
	assert.Equal(t, 1, withErr.Attempts())

	withFallback := withErr.RecordFallback(StrategyKeywordInference)
	assert.Equal(t, 1, withErr.Attempts())
	assert.Empty(t, withErr.FallbacksUsed())
	assert.Equal(t, 2, withFallback.Attempts())

	// Two branches from the same parent must not see each other's appends.
	left := withFallback.RecordFallback("left")
	right := withFallback.RecordFallback("right")
	assert.Equal(t, []string{StrategyKeywordInference, "left"}, left.FallbacksUsed())
	assert.Equal(t, []string{StrategyKeywordInference, "right"}, right.FallbacksUsed())
	assert.Equal(t, []string{StrategyKeywordInference}, withFallback.FallbacksUsed())
}

func TestRecordAccumulatesInOrder(t *testing.T) {
	e1 := types.NewParseError(types.ErrAST, "first")
	e2 := types.NewParseError(types.ErrMissingSection, "second")

	rc := NewContext().
		RecordError(e1).
		RecordFallback("one").
		RecordError(e2).
		RecordFallback("two")

	assert.Equal(t, 4, rc.Attempts())
	assert.Equal(t, []*types.ParseError{e1, e2}, rc.Errors())
	assert.Equal(t, []string{"one", "two"}, rc.FallbacksUsed())

	sum := rc.Summary()
	assert.Equal(t, 4, sum.Attempts)
	require.Len(t, sum.Errors, 2)
	assert.Equal(t, types.ErrMissingSection, sum.Errors[1].Code)
}

func TestAccessorsReturnCopies(t *testing.T) {
	rc := NewContext().RecordFallback("x")
	fb := rc.FallbacksUsed()
	fb[0] = "mutated"
	assert.Equal(t, []string{"x"}, rc.FallbacksUsed())
}

func TestCreateFallbackIssueEmpty(t *testing.T) {
	issue := CreateFallbackIssue("")
	assert.Equal(t, lexicon.NoDescription, issue.ProblemDescription)
	assert.Equal(t, types.SourceManual, issue.Source)
	assert.Equal(t, types.TypeChore, issue.Type)
	assert.Equal(t, types.PriorityMedium, issue.Context.Priority)
	assert.NotNil(t, issue.Context.RelatedFiles)
	assert.NotNil(t, issue.AcceptanceCriteria)
}

func TestCreateFallbackIssueInfers(t *testing.T) {
	body := "# Urgent\nSentry alert https://sentry.io/issues/991/ : the checkout crashes with an exception.\n```\nstack\n```"
	issue := CreateFallbackIssue(body)
	assert.Equal(t, types.SourceSentry, issue.Source)
	assert.Equal(t, "991", issue.SourceID)
	assert.Equal(t, types.TypeBug, issue.Type)
	assert.Equal(t, types.PriorityCritical, issue.Context.Priority)
	assert.Equal(t, "Sentry alert : the checkout crashes with an exception.", issue.ProblemDescription)
}

func TestAttemptRecoveryRefusedAtMaxAttempts(t *testing.T) {
	cfg := DefaultConfig()
	rc := NewContext()
	for i := 0; i < cfg.MaxAttempts; i++ {
		rc = rc.RecordFallback("spent")
	}
	for _, code := range []types.ErrorCode{types.ErrAST, types.ErrParse, types.ErrMissingSection, types.ErrValidation} {
		issue, after := AttemptRecovery(Input{Body: "text", Err: types.NewParseError(code, "x")}, rc, cfg)
		assert.Nil(t, issue, code)
		assert.Equal(t, rc.Attempts(), after.Attempts())
	}
}

func TestAttemptRecoveryEligibility(t *testing.T) {
	tests := []struct {
		name        string
		code        types.ErrorCode
		useDefaults bool
		want        bool
	}{
		{"ast", types.ErrAST, false, true},
		{"parse", types.ErrParse, false, true},
		{"missing section", types.ErrMissingSection, false, true},
		{"validation with defaults", types.ErrValidation, true, true},
		{"validation without defaults", types.ErrValidation, false, false},
		{"invalid format", types.ErrInvalidFormat, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.UseDefaults = tt.useDefaults
			assert.Equal(t, tt.want, Eligible(tt.code, cfg))

			issue, _ := AttemptRecovery(Input{Body: "body", Err: types.NewParseError(tt.code, "x")}, NewContext(), cfg)
			assert.Equal(t, tt.want, issue != nil)
		})
	}
}

func TestAttemptRecoveryStrategies(t *testing.T) {
	body := "The `renderCart` call in src/cart.ts breaks.\n- [ ] cart renders"
	err := types.NewParseError(types.ErrMissingSection, "no description")

	cfg := DefaultConfig()
	issue, rc := AttemptRecovery(Input{Body: body, Err: err}, NewContext(), cfg)
	require.NotNil(t, issue)
	assert.Equal(t, []string{StrategyKeywordInference, StrategyContextInference}, rc.FallbacksUsed())
	assert.Equal(t, []string{"src/cart.ts"}, issue.Context.RelatedFiles)
	assert.Equal(t, []string{"renderCart"}, issue.Context.RelatedSymbols)
	require.Len(t, issue.AcceptanceCriteria, 1)

	cfg.InferFromContext = false
	issue, rc = AttemptRecovery(Input{Body: body, Err: err}, NewContext(), cfg)
	require.NotNil(t, issue)
	assert.Equal(t, []string{StrategyKeywordInference}, rc.FallbacksUsed())
	assert.Empty(t, issue.Context.RelatedFiles)
}

func TestApplyDefaults(t *testing.T) {
	partial := types.ParsedIssue{
		Source:             "jira",
		Type:               types.TypeFeature,
		ProblemDescription: "",
		Context:            types.IssueContext{Priority: "whenever"},
		CodeAnalysis: &types.CodeAnalysis{
			FilePath:  "a.go",
			StartLine: types.Line(9),
			EndLine:   types.Line(3),
			StackTrace: []types.StackFrame{
				{File: "", Line: 1},
				{File: "a.go", Line: 3},
			},
		},
		SuggestedFix:       &types.SuggestedFix{Steps: []string{"x"}, Confidence: 7},
		AcceptanceCriteria: []types.AcceptanceCriterion{{Description: ""}, {Description: "works"}},
	}
	res := validation.ValidateParsedIssue(partial)
	require.False(t, res.Valid)

	body := "GitHub report: high latency in a.go"
	cfg := DefaultConfig()
	issue, rc := AttemptRecovery(Input{
		Body:       body,
		Err:        types.NewParseError(types.ErrValidation, "invalid"),
		Partial:    &partial,
		Validation: &res,
	}, NewContext(), cfg)
	require.NotNil(t, issue)
	assert.Equal(t, []string{StrategyApplyDefaults}, rc.FallbacksUsed())

	assert.Equal(t, types.SourceGitHub, issue.Source)
	assert.Equal(t, types.TypeFeature, issue.Type, "valid fields are kept")
	assert.Equal(t, "GitHub report: high latency in a.go", issue.ProblemDescription)
	assert.Equal(t, types.PriorityHigh, issue.Context.Priority)
	assert.Equal(t, types.Line(9), issue.CodeAnalysis.StartLine)
	assert.Nil(t, issue.CodeAnalysis.EndLine)
	assert.Len(t, issue.CodeAnalysis.StackTrace, 1)
	assert.Equal(t, lexicon.ConfidenceDefault, issue.SuggestedFix.Confidence)
	assert.Equal(t, []types.AcceptanceCriterion{{Description: "works"}}, issue.AcceptanceCriteria)

	assert.True(t, validation.ValidateParsedIssue(*issue).Valid)

	// The partial issue is untouched.
	assert.Equal(t, types.Source("jira"), partial.Source)
	assert.Equal(t, types.Line(3), partial.CodeAnalysis.EndLine)
	assert.Len(t, partial.CodeAnalysis.StackTrace, 2)
	assert.Equal(t, 7.0, partial.SuggestedFix.Confidence)
	assert.Len(t, partial.AcceptanceCriteria, 2)
}
