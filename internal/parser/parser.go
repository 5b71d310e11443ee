// Package parser turns a Markdown issue body into a validated ParsedIssue.
//
// ParseIssueBody runs the section parsers over the goldmark AST, validates
// the assembled issue and, when a stage fails, hands the failure to the
// recovery engine instead of giving up:
//
//	Start -> ASTBuild -> ParseSections -> Validate -> Done
//	            |              |             |
//	            +------> AttemptRecovery <---+  (invalid and fallback on)
//	                           |
//	                 Recovered: Validate / Refused: Error
//
// All parsers are pure functions of their input. Concurrent calls share only
// read-only tables and need no synchronization.
package parser

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/recovery"
	"github.com/steveyegge/triage/internal/telemetry"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/validation"
)

// ParseIssueBody parses body with opts (nil means DefaultOptions). On
// success the result is always non-nil; Validation.Valid may still be false
// when fallback is on and recovery could not repair the issue. Errors are
// *types.ParseError.
func ParseIssueBody(ctx context.Context, body string, opts *Options) (*types.ParseResult, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	ctx, span := telemetry.StartParse(ctx, len(body))
	r := &run{body: body, opts: *opts, rc: recovery.NewContext(), span: span}

	res, err := r.parse()
	span.End(ctx, res != nil && res.UsedFallback, r.rc.Attempts(), err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// run is the state of one ParseIssueBody call.
type run struct {
	body         string
	opts         Options
	rc           recovery.Context
	span         *telemetry.ParseSpan
	usedFallback bool
}

func (r *run) parse() (*types.ParseResult, error) {
	if err := checkFormat(r.body, r.opts); err != nil {
		r.rc = r.rc.RecordError(err)
		return nil, err
	}

	doc, err := markdown.Parse([]byte(r.body))
	if err != nil {
		return r.recover(asParseError(err, types.ErrAST))
	}

	issue, err := ParseSections(doc, r.opts)
	if err != nil {
		return r.recover(asParseError(err, types.ErrParse))
	}
	return r.validate(issue)
}

// checkFormat rejects input no strategy can use.
func checkFormat(body string, opts Options) *types.ParseError {
	switch {
	case len(body) > MaxBodyBytes:
		return types.NewParseError(types.ErrInvalidFormat, "body is %d bytes, limit is %d", len(body), MaxBodyBytes)
	case strings.IndexByte(body, 0) >= 0:
		return types.NewParseError(types.ErrInvalidFormat, "body contains NUL bytes")
	case strings.TrimSpace(body) == "" && !opts.EnableFallback:
		return types.NewParseError(types.ErrInvalidFormat, "body is empty and fallback is disabled")
	}
	return nil
}

// ParseSections runs every section parser over doc, stopping at the first
// error.
func ParseSections(doc *markdown.Document, opts Options) (types.ParsedIssue, error) {
	var issue types.ParsedIssue

	src, err := ParseSource(doc)
	if err != nil {
		return issue, inSection(err, markdown.SectionSource)
	}
	issue.Source, issue.SourceID, issue.SourceURL = src.Source, src.ID, src.URL

	if issue.Type, err = ParseType(doc); err != nil {
		return issue, inSection(err, markdown.SectionType)
	}
	if issue.Context, err = ParseContext(doc, opts.now()); err != nil {
		return issue, inSection(err, markdown.SectionContext)
	}
	if issue.CodeAnalysis, err = ParseCodeAnalysis(doc); err != nil {
		return issue, inSection(err, markdown.SectionCodeAnalysis)
	}
	if issue.ProblemDescription, err = ParseProblemDescription(doc); err != nil {
		return issue, inSection(err, markdown.SectionProblemDescription)
	}
	if issue.SuggestedFix, err = ParseSuggestedFix(doc); err != nil {
		return issue, inSection(err, markdown.SectionSuggestedFix)
	}
	if issue.AcceptanceCriteria, err = ParseAcceptanceCriteria(doc); err != nil {
		return issue, inSection(err, markdown.SectionAcceptanceCriteria)
	}
	issue.RawSections = doc.RawSections()
	return issue, nil
}

// recover records perr and hands it to the recovery engine. A refused
// recovery surfaces perr.
func (r *run) recover(perr *types.ParseError) (*types.ParseResult, error) {
	issue := r.attempt(recovery.Input{Body: r.body, Err: perr})
	if issue == nil {
		return nil, perr
	}
	return r.validate(*issue)
}

// attempt records in.Err and, with fallback enabled, runs one recovery. The
// budget is checked against the attempts made before in.Err, so a
// MaxAttempts of 1 still allows a single recovery.
func (r *run) attempt(in recovery.Input) *types.ParsedIssue {
	prior := r.rc
	r.rc = r.rc.RecordError(in.Err)
	if !r.opts.EnableFallback {
		return nil
	}
	issue, rc := recovery.AttemptRecovery(in, prior, r.opts.Fallback)
	if issue == nil {
		return nil
	}
	r.rc = rc.RecordError(in.Err)
	r.usedFallback = true
	r.span.Event("triage.recovery",
		attribute.String("triage.error.code", string(in.Err.Code)),
		attribute.StringSlice("triage.fallbacks", rc.FallbacksUsed()),
	)
	return issue
}

func (r *run) validate(issue types.ParsedIssue) (*types.ParseResult, error) {
	if r.opts.SkipValidation {
		return r.done(issue, types.ValidationResult{
			Valid:    true,
			Errors:   []types.ValidationIssue{},
			Warnings: []types.ValidationIssue{},
		}), nil
	}

	res := validation.ValidateParsedIssue(issue)
	if !res.Valid {
		verr := types.NewParseError(types.ErrValidation, "%s", summarize(res.Errors))
		if !r.opts.EnableFallback {
			r.rc = r.rc.RecordError(verr)
			return nil, verr
		}
		fixed := r.attempt(recovery.Input{
			Body:       r.body,
			Err:        verr,
			Partial:    &issue,
			Validation: &res,
		})
		if fixed != nil {
			issue = *fixed
			res = validation.ValidateParsedIssue(issue)
		}
	}

	if r.opts.Fallback.LogWarnings {
		for _, w := range res.Warnings {
			debug.Logf("validation: %s %s: %s\n", w.Code, w.Field, w.Message)
		}
	}
	if r.opts.Strict && (!res.Valid || len(res.Warnings) > 0) {
		err := types.NewParseError(types.ErrValidation, "strict mode: %s", summarize(append(res.Errors, res.Warnings...)))
		r.rc = r.rc.RecordError(err)
		return nil, err
	}
	return r.done(issue, res), nil
}

func (r *run) done(issue types.ParsedIssue, res types.ValidationResult) *types.ParseResult {
	if r.usedFallback && r.opts.Fallback.LogWarnings {
		debug.Logf("parse: used_fallback=true attempts=%d fallbacks=%s\n",
			r.rc.Attempts(), strings.Join(r.rc.FallbacksUsed(), ","))
	}
	return &types.ParseResult{
		Issue:        issue,
		Validation:   res,
		UsedFallback: r.usedFallback,
		Recovery:     r.rc.Summary(),
	}
}

// summarize renders findings as "CODE field; CODE field".
func summarize(issues []types.ValidationIssue) string {
	parts := make([]string, 0, len(issues))
	for _, i := range issues {
		parts = append(parts, i.Code+" "+i.Field)
	}
	return strings.Join(parts, "; ")
}

func asParseError(err error, fallback types.ErrorCode) *types.ParseError {
	var pe *types.ParseError
	if errors.As(err, &pe) {
		return pe
	}
	return types.WrapParseError(fallback, err, "unexpected failure")
}

func inSection(err error, section string) error {
	var pe *types.ParseError
	if errors.As(err, &pe) && pe.Section == "" {
		return pe.InSection(section)
	}
	return err
}
