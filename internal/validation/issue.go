// Package validation checks an assembled ParsedIssue against the domain
// rules. Errors make the issue invalid; warnings are advisory only.
package validation

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/steveyegge/triage/internal/types"
)

// Validation codes.
const (
	CodeInvalidSource        = "INVALID_SOURCE"
	CodeInvalidType          = "INVALID_TYPE"
	CodeMissingDescription   = "MISSING_DESCRIPTION"
	CodeShortDescription     = "SHORT_DESCRIPTION"
	CodeLongDescription      = "LONG_DESCRIPTION"
	CodeInvalidPriority      = "INVALID_PRIORITY"
	CodeInvalidFilePath      = "INVALID_FILE_PATH"
	CodeInvalidLineNumber    = "INVALID_LINE_NUMBER"
	CodeInvalidLineRange     = "INVALID_LINE_RANGE"
	CodeInvalidStackFrame    = "INVALID_STACK_FRAME"
	CodeInvalidConfidence    = "INVALID_CONFIDENCE"
	CodeEmptySteps           = "EMPTY_STEPS"
	CodeNoAcceptanceCriteria = "NO_ACCEPTANCE_CRITERIA"
	CodeEmptyCriterion       = "EMPTY_CRITERION"
	CodeMissingSentryID      = "MISSING_SENTRY_ID"
	CodeMissingAsanaID       = "MISSING_ASANA_ID"
	CodeInvalidSourceURL     = "INVALID_SOURCE_URL"
)

// Description length bounds, in characters.
const (
	MinDescriptionLength = 10
	MaxDescriptionLength = 10000
)

var filePathRe = regexp.MustCompile(`^[./]?[\w\-./]+\.\w+$`)

// IsValidFilePath reports whether p has the shape of a relative or absolute
// source path with an extension.
func IsValidFilePath(p string) bool {
	return filePathRe.MatchString(p)
}

// report accumulates findings for one issue.
type report struct {
	errors   []types.ValidationIssue
	warnings []types.ValidationIssue
}

func (r *report) fail(field, code, format string, args ...interface{}) {
	r.errors = append(r.errors, types.ValidationIssue{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

func (r *report) warn(field, code, format string, args ...interface{}) {
	r.warnings = append(r.warnings, types.ValidationIssue{Field: field, Code: code, Message: fmt.Sprintf(format, args...)})
}

// ValidateParsedIssue runs every rule over issue. It never modifies issue.
func ValidateParsedIssue(issue types.ParsedIssue) types.ValidationResult {
	var r report

	checkSource(&r, issue)
	if !issue.Type.IsValid() {
		r.fail("type", CodeInvalidType, "invalid type %q", issue.Type)
	}
	checkDescription(&r, issue.ProblemDescription)
	checkContext(&r, issue.Context)
	if issue.CodeAnalysis != nil {
		checkCodeAnalysis(&r, *issue.CodeAnalysis)
	}
	if issue.SuggestedFix != nil {
		checkSuggestedFix(&r, *issue.SuggestedFix)
	}
	checkCriteria(&r, issue.AcceptanceCriteria)

	return types.ValidationResult{
		Valid:    len(r.errors) == 0,
		Errors:   nonNil(r.errors),
		Warnings: nonNil(r.warnings),
	}
}

func checkSource(r *report, issue types.ParsedIssue) {
	if !issue.Source.IsValid() {
		r.fail("source", CodeInvalidSource, "invalid source %q", issue.Source)
		return
	}
	if strings.TrimSpace(issue.SourceID) == "" {
		switch issue.Source {
		case types.SourceSentry:
			r.warn("source_id", CodeMissingSentryID, "sentry issue has no Sentry ID")
		case types.SourceAsana:
			r.warn("source_id", CodeMissingAsanaID, "asana issue has no Asana task ID")
		}
	}
	if issue.SourceURL != "" {
		u, err := url.Parse(issue.SourceURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			r.warn("source_url", CodeInvalidSourceURL, "source URL %q is not an absolute http(s) URL", issue.SourceURL)
		}
	}
}

func checkDescription(r *report, desc string) {
	desc = strings.TrimSpace(desc)
	n := utf8.RuneCountInString(desc)
	switch {
	case n == 0:
		r.fail("problem_description", CodeMissingDescription, "problem description is empty")
	case n < MinDescriptionLength:
		r.warn("problem_description", CodeShortDescription, "problem description is only %d characters", n)
	case n > MaxDescriptionLength:
		r.warn("problem_description", CodeLongDescription, "problem description is %d characters (max %d)", n, MaxDescriptionLength)
	}
}

func checkContext(r *report, ctx types.IssueContext) {
	if !ctx.Priority.IsValid() {
		r.fail("context.priority", CodeInvalidPriority, "invalid priority %q", ctx.Priority)
	}
	for i, f := range ctx.RelatedFiles {
		if !IsValidFilePath(f) {
			r.warn(fmt.Sprintf("context.related_files[%d]", i), CodeInvalidFilePath, "%q does not look like a file path", f)
		}
	}
}

func checkCodeAnalysis(r *report, ca types.CodeAnalysis) {
	if ca.FilePath != "" && !IsValidFilePath(ca.FilePath) {
		r.warn("code_analysis.file_path", CodeInvalidFilePath, "%q does not look like a file path", ca.FilePath)
	}
	// nil means the line is unknown; a present line must be >= 1.
	if ca.StartLine != nil && *ca.StartLine < 1 {
		r.fail("code_analysis.start_line", CodeInvalidLineNumber, "start line %d must be >= 1", *ca.StartLine)
	}
	if ca.EndLine != nil && *ca.EndLine < 1 {
		r.fail("code_analysis.end_line", CodeInvalidLineNumber, "end line %d must be >= 1", *ca.EndLine)
	}
	if ca.StartLine != nil && ca.EndLine != nil && *ca.StartLine > *ca.EndLine {
		r.fail("code_analysis.end_line", CodeInvalidLineRange, "start line %d is after end line %d", *ca.StartLine, *ca.EndLine)
	}
	for i, fr := range ca.StackTrace {
		field := fmt.Sprintf("code_analysis.stack_trace[%d]", i)
		if strings.TrimSpace(fr.File) == "" {
			r.fail(field+".file", CodeInvalidStackFrame, "stack frame has no file")
		}
		if fr.Line < 1 {
			r.fail(field+".line", CodeInvalidLineNumber, "stack frame line %d must be >= 1", fr.Line)
		}
		if fr.Column < 0 {
			r.fail(field+".column", CodeInvalidLineNumber, "stack frame column %d must be >= 1", fr.Column)
		}
	}
}

func checkSuggestedFix(r *report, fix types.SuggestedFix) {
	if math.IsNaN(fix.Confidence) || fix.Confidence < 0 || fix.Confidence > 1 {
		r.fail("suggested_fix.confidence", CodeInvalidConfidence, "confidence %v is outside [0, 1]", fix.Confidence)
	}
	if len(fix.Steps) == 0 {
		r.warn("suggested_fix.steps", CodeEmptySteps, "suggested fix has no steps")
	}
}

func checkCriteria(r *report, criteria []types.AcceptanceCriterion) {
	if len(criteria) == 0 {
		r.warn("acceptance_criteria", CodeNoAcceptanceCriteria, "no acceptance criteria")
		return
	}
	for i, c := range criteria {
		if strings.TrimSpace(c.Description) == "" {
			r.fail(fmt.Sprintf("acceptance_criteria[%d].description", i), CodeEmptyCriterion, "acceptance criterion %d has no description", i+1)
		}
	}
}

func nonNil(issues []types.ValidationIssue) []types.ValidationIssue {
	if issues == nil {
		return []types.ValidationIssue{}
	}
	return issues
}
