// Package triage provides the public API for parsing Markdown issue bodies
// into structured triage records.
//
// Most callers need only ParseIssueBody. The types below are aliases of the
// internal ones so results can be passed around without importing internal
// packages.
package triage

import (
	"context"

	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/validation"
)

// Core types for working with parsed issues
type (
	ParsedIssue         = types.ParsedIssue
	IssueContext        = types.IssueContext
	CodeAnalysis        = types.CodeAnalysis
	StackFrame          = types.StackFrame
	SuggestedFix        = types.SuggestedFix
	AcceptanceCriterion = types.AcceptanceCriterion
	Source              = types.Source
	IssueType           = types.IssueType
	Priority            = types.Priority
	ParseResult         = types.ParseResult
	ValidationResult    = types.ValidationResult
	ValidationIssue     = types.ValidationIssue
	ParseError          = types.ParseError
	ErrorCode           = types.ErrorCode
	Options             = parser.Options
)

// Source constants
const (
	SourceSentry = types.SourceSentry
	SourceAsana  = types.SourceAsana
	SourceGitHub = types.SourceGitHub
	SourceManual = types.SourceManual
)

// IssueType constants
const (
	TypeBug      = types.TypeBug
	TypeFeature  = types.TypeFeature
	TypeRefactor = types.TypeRefactor
	TypeDocs     = types.TypeDocs
	TypeTest     = types.TypeTest
	TypeChore    = types.TypeChore
)

// Priority constants
const (
	PriorityCritical = types.PriorityCritical
	PriorityHigh     = types.PriorityHigh
	PriorityMedium   = types.PriorityMedium
	PriorityLow      = types.PriorityLow
)

// Error codes carried by *ParseError
const (
	ErrAST            = types.ErrAST
	ErrParse          = types.ErrParse
	ErrMissingSection = types.ErrMissingSection
	ErrValidation     = types.ErrValidation
	ErrInvalidFormat  = types.ErrInvalidFormat
)

// DefaultOptions returns non-strict options with every recovery strategy on.
func DefaultOptions() *Options {
	return parser.DefaultOptions()
}

// ParseIssueBody parses body into a structured issue. A nil opts means
// DefaultOptions. Errors are *ParseError.
func ParseIssueBody(ctx context.Context, body string, opts *Options) (*ParseResult, error) {
	return parser.ParseIssueBody(ctx, body, opts)
}

// Validate checks an already-built issue.
func Validate(issue ParsedIssue) ValidationResult {
	return validation.ValidateParsedIssue(issue)
}
