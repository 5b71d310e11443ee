// Package types defines core data structures for the triage issue parser.
package types

import "time"

// ParsedIssue is the structured form of an issue body. It is built exactly
// once per parse, either by the section pipeline or by the recovery engine,
// and is passed around by value.
type ParsedIssue struct {
	Source             Source                `json:"source"`
	SourceID           string                `json:"source_id,omitempty"`
	SourceURL          string                `json:"source_url,omitempty"`
	Type               IssueType             `json:"type"`
	ProblemDescription string                `json:"problem_description"`
	Context            IssueContext          `json:"context"`
	CodeAnalysis       *CodeAnalysis         `json:"code_analysis,omitempty"`
	SuggestedFix       *SuggestedFix         `json:"suggested_fix,omitempty"`
	AcceptanceCriteria []AcceptanceCriterion `json:"acceptance_criteria"`
	RawSections        map[string]string     `json:"raw_sections,omitempty"`
}

// IssueContext holds triage metadata pulled from the body.
type IssueContext struct {
	Priority       Priority   `json:"priority"`
	RelatedFiles   []string   `json:"related_files"`
	RelatedSymbols []string   `json:"related_symbols"`
	Component      string     `json:"component,omitempty"`
	Service        string     `json:"service,omitempty"`
	Environment    string     `json:"environment,omitempty"`
	Due            string     `json:"due,omitempty"`    // Raw text from the Context section
	DueAt          *time.Time `json:"due_at,omitempty"` // Resolved Due, nil when unparseable
}

// CodeAnalysis describes the code location an issue points at.
type CodeAnalysis struct {
	FilePath     string       `json:"file_path"`
	StartLine    *int         `json:"start_line,omitempty"` // nil = unknown
	EndLine      *int         `json:"end_line,omitempty"`   // nil = unknown
	FunctionName string       `json:"function_name,omitempty"`
	ClassName    string       `json:"class_name,omitempty"`
	Language     string       `json:"language,omitempty"`
	Snippet      string       `json:"snippet,omitempty"`
	StackTrace   []StackFrame `json:"stack_trace,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	ErrorType    string       `json:"error_type,omitempty"`
}

// Line returns a pointer to n for the CodeAnalysis line fields.
func Line(n int) *int { return &n }

// LineValue returns *p, or 0 when p is nil.
func LineValue(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

// StackFrame is one parsed entry of a stack trace.
type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column,omitempty"` // 0 = unknown
	Function string `json:"function,omitempty"`
}

// SuggestedFix is the fix direction written by the reporter.
type SuggestedFix struct {
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
	Confidence  float64  `json:"confidence"`
}

// AcceptanceCriterion is a single checkbox item or Given/When/Then scenario.
type AcceptanceCriterion struct {
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	Scenario    string `json:"scenario,omitempty"`
}

// Source identifies where an issue came from
type Source string

// Issue source constants
const (
	SourceAsana  Source = "asana"
	SourceSentry Source = "sentry"
	SourceManual Source = "manual"
	SourceGitHub Source = "github"
)

// IsValid checks if the source value is valid
func (s Source) IsValid() bool {
	switch s {
	case SourceAsana, SourceSentry, SourceManual, SourceGitHub:
		return true
	}
	return false
}

// IssueType categorizes the kind of work
type IssueType string

// Issue type constants
const (
	TypeBug      IssueType = "bug"
	TypeFeature  IssueType = "feature"
	TypeRefactor IssueType = "refactor"
	TypeDocs     IssueType = "docs"
	TypeTest     IssueType = "test"
	TypeChore    IssueType = "chore"
)

// IsValid checks if the issue type value is valid
func (t IssueType) IsValid() bool {
	switch t {
	case TypeBug, TypeFeature, TypeRefactor, TypeDocs, TypeTest, TypeChore:
		return true
	}
	return false
}

// Priority is the triage urgency of an issue
type Priority string

// Priority constants
const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid checks if the priority value is valid
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Rank orders priorities from most (0) to least (3) urgent.
// Unknown priorities rank after low.
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// ParseResult is what a successful parse returns.
type ParseResult struct {
	Issue        ParsedIssue      `json:"issue"`
	Validation   ValidationResult `json:"validation"`
	UsedFallback bool             `json:"used_fallback"`
	Recovery     RecoverySummary  `json:"recovery"`
}

// RecoverySummary is the audit trail of a parse that went through recovery.
type RecoverySummary struct {
	Attempts      int            `json:"attempts"`
	FallbacksUsed []string       `json:"fallbacks_used,omitempty"`
	Errors        []ErrorSummary `json:"errors,omitempty"`
}

// ErrorSummary is the serializable form of a ParseError.
type ErrorSummary struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Section string    `json:"section,omitempty"`
}
