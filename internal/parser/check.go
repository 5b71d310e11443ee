package parser

import (
	"context"

	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/validation"
)

// CheckIssueBody parses body as written, with recovery off, and validates
// the result. Parse failures are returned as errors; validation findings
// are returned in the result whatever their severity.
func CheckIssueBody(ctx context.Context, body string) (*types.ParsedIssue, types.ValidationResult, error) {
	opts := DefaultOptions()
	opts.EnableFallback = false
	opts.SkipValidation = true
	res, err := ParseIssueBody(ctx, body, opts)
	if err != nil {
		return nil, types.ValidationResult{}, err
	}
	return &res.Issue, validation.ValidateParsedIssue(res.Issue), nil
}

// Classification is the triage headline of an issue.
type Classification struct {
	Source   types.Source    `json:"source"`
	SourceID string          `json:"source_id,omitempty"`
	Type     types.IssueType `json:"type"`
	Priority types.Priority  `json:"priority"`
}

// Classify parses body with opts and keeps only its classification.
func Classify(ctx context.Context, body string, opts *Options) (Classification, error) {
	res, err := ParseIssueBody(ctx, body, opts)
	if err != nil {
		return Classification{}, err
	}
	return Classification{
		Source:   res.Issue.Source,
		SourceID: res.Issue.SourceID,
		Type:     res.Issue.Type,
		Priority: res.Issue.Context.Priority,
	}, nil
}
