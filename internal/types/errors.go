package types

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a parse failure.
type ErrorCode string

// Parse error codes
const (
	ErrAST            ErrorCode = "AST_ERROR"        // Markdown tree construction failed
	ErrParse          ErrorCode = "PARSE_ERROR"      // A sub-parser could not extract required data
	ErrMissingSection ErrorCode = "MISSING_SECTION"  // Required heading absent with no fallback content
	ErrValidation     ErrorCode = "VALIDATION_ERROR" // Assembled issue fails invariants
	ErrInvalidFormat  ErrorCode = "INVALID_FORMAT"   // Input is fundamentally unusable
)

// ParseError is the typed error returned by every stage of the engine.
type ParseError struct {
	Code    ErrorCode
	Message string
	Section string // Section being parsed, if any
	Err     error  // Underlying cause, if any
}

// NewParseError creates a ParseError with a formatted message.
func NewParseError(code ErrorCode, format string, args ...interface{}) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapParseError creates a ParseError that wraps err.
func WrapParseError(code ErrorCode, err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// InSection returns a copy of e attributed to the named section.
func (e *ParseError) InSection(name string) *ParseError {
	cp := *e
	cp.Section = name
	return &cp
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Section != "" {
		msg = fmt.Sprintf("%s: %s", e.Section, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Summary returns the serializable form of e.
func (e *ParseError) Summary() ErrorSummary {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return ErrorSummary{Code: e.Code, Message: msg, Section: e.Section}
}

// CodeOf returns the ErrorCode of err if it is (or wraps) a ParseError.
// Returns "" otherwise.
func CodeOf(err error) ErrorCode {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
