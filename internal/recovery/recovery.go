package recovery

import (
	"strings"

	"github.com/steveyegge/triage/internal/debug"
	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/types"
	"github.com/steveyegge/triage/internal/validation"
)

// Strategy names recorded in Context.FallbacksUsed.
const (
	StrategyKeywordInference = "keyword-inference"
	StrategyContextInference = "context-inference"
	StrategyApplyDefaults    = "apply-defaults"
)

// DefaultMaxAttempts bounds the attempts of one parse call.
const DefaultMaxAttempts = 3

// Config controls the recovery engine.
type Config struct {
	UseDefaults      bool `json:"use_defaults" yaml:"use-defaults"`
	InferFromContext bool `json:"infer_from_context" yaml:"infer-from-context"`
	LogWarnings      bool `json:"log_warnings" yaml:"log-warnings"`
	MaxAttempts      int  `json:"max_attempts" yaml:"max-attempts"`
}

// DefaultConfig enables every strategy with DefaultMaxAttempts.
func DefaultConfig() Config {
	return Config{
		UseDefaults:      true,
		InferFromContext: true,
		LogWarnings:      true,
		MaxAttempts:      DefaultMaxAttempts,
	}
}

// Eligible reports whether a failure with code may be recovered under cfg.
// INVALID_FORMAT and unknown codes are terminal.
func Eligible(code types.ErrorCode, cfg Config) bool {
	switch code {
	case types.ErrAST, types.ErrParse, types.ErrMissingSection:
		return true
	case types.ErrValidation:
		return cfg.UseDefaults
	}
	return false
}

// Input is what the orchestrator hands over when a stage fails.
type Input struct {
	Body string
	Err  *types.ParseError

	// Set on the VALIDATION_ERROR path: the issue the pipeline built and
	// the result that rejected it.
	Partial    *types.ParsedIssue
	Validation *types.ValidationResult
}

// AttemptRecovery runs the strategies that apply to in.Err. It returns nil
// (and rc unchanged) when recovery is refused: the attempt budget is spent,
// or the error code is not eligible. Otherwise it returns the recovered
// issue and rc with every applied strategy recorded.
func AttemptRecovery(in Input, rc Context, cfg Config) (*types.ParsedIssue, Context) {
	if in.Err == nil {
		return nil, rc
	}
	if rc.Attempts() >= cfg.MaxAttempts {
		logf(cfg, "recovery: refused after %d attempts (max %d): %v\n", rc.Attempts(), cfg.MaxAttempts, in.Err)
		return nil, rc
	}
	if !Eligible(in.Err.Code, cfg) {
		logf(cfg, "recovery: %s is not recoverable\n", in.Err.Code)
		return nil, rc
	}

	if in.Err.Code == types.ErrValidation && in.Partial != nil && in.Validation != nil {
		issue := ApplyDefaults(*in.Partial, *in.Validation, in.Body)
		logf(cfg, "recovery: %s replaced %d invalid field(s)\n", StrategyApplyDefaults, len(in.Validation.Errors))
		return &issue, rc.RecordFallback(StrategyApplyDefaults)
	}

	issue := CreateFallbackIssue(in.Body)
	rc = rc.RecordFallback(StrategyKeywordInference)
	logf(cfg, "recovery: %s after %v\n", StrategyKeywordInference, in.Err)
	if cfg.InferFromContext {
		issue = InferFromContext(issue, in.Body)
		rc = rc.RecordFallback(StrategyContextInference)
		logf(cfg, "recovery: %s found %d file(s), %d symbol(s), %d criteria\n", StrategyContextInference,
			len(issue.Context.RelatedFiles), len(issue.Context.RelatedSymbols), len(issue.AcceptanceCriteria))
	}
	return &issue, rc
}

// CreateFallbackIssue builds a minimal issue from raw text using only the
// keyword lexicons. It never fails; an empty body yields a manual chore with
// lexicon.NoDescription.
func CreateFallbackIssue(body string) types.ParsedIssue {
	src := lexicon.InferSource(body)
	srcURL := lexicon.SourceURL(src, body)
	return types.ParsedIssue{
		Source:             src,
		SourceID:           lexicon.SourceID(src, body, srcURL),
		SourceURL:          srcURL,
		Type:               lexicon.InferType(body),
		ProblemDescription: lexicon.Summarize(body),
		Context: types.IssueContext{
			Priority:       lexicon.PriorityFromCues(body),
			RelatedFiles:   []string{},
			RelatedSymbols: []string{},
		},
		AcceptanceCriteria: []types.AcceptanceCriterion{},
	}
}

// InferFromContext fills files, symbols and criteria from body with the same
// extractors and caps the section parsers use. Fields that are already set
// are kept.
func InferFromContext(issue types.ParsedIssue, body string) types.ParsedIssue {
	if len(issue.Context.RelatedFiles) == 0 {
		issue.Context.RelatedFiles = nonNil(lexicon.ExtractFilePaths(body, lexicon.MaxRelatedFiles))
	}
	if len(issue.Context.RelatedSymbols) == 0 {
		issue.Context.RelatedSymbols = nonNil(lexicon.ExtractSymbols(lexicon.StripCodeFences(body), lexicon.MaxRelatedSymbols))
	}
	if len(issue.AcceptanceCriteria) == 0 {
		if c := lexicon.ExtractCriteria(body); len(c) > 0 {
			issue.AcceptanceCriteria = c
		}
	}
	return issue
}

// ApplyDefaults returns a copy of issue with every field named by a
// validation error reset to its default. Warnings are left alone.
func ApplyDefaults(issue types.ParsedIssue, res types.ValidationResult, body string) types.ParsedIssue {
	out := issue
	if issue.CodeAnalysis != nil {
		ca := *issue.CodeAnalysis
		ca.StackTrace = append([]types.StackFrame(nil), issue.CodeAnalysis.StackTrace...)
		out.CodeAnalysis = &ca
	}
	if issue.SuggestedFix != nil {
		fix := *issue.SuggestedFix
		out.SuggestedFix = &fix
	}
	out.AcceptanceCriteria = append([]types.AcceptanceCriterion(nil), issue.AcceptanceCriteria...)

	for _, e := range res.Errors {
		switch e.Code {
		case validation.CodeInvalidSource:
			out.Source = lexicon.InferSource(body)
		case validation.CodeInvalidType:
			out.Type = lexicon.InferType(body)
		case validation.CodeMissingDescription:
			out.ProblemDescription = lexicon.Summarize(body)
		case validation.CodeInvalidPriority:
			out.Context.Priority = lexicon.PriorityFromCues(body)
		case validation.CodeInvalidLineNumber, validation.CodeInvalidLineRange, validation.CodeInvalidStackFrame:
			if out.CodeAnalysis != nil {
				sanitizeLines(out.CodeAnalysis)
			}
		case validation.CodeInvalidConfidence:
			if out.SuggestedFix != nil {
				out.SuggestedFix.Confidence = lexicon.ConfidenceDefault
			}
		case validation.CodeEmptyCriterion:
			kept := out.AcceptanceCriteria[:0]
			for _, c := range out.AcceptanceCriteria {
				if strings.TrimSpace(c.Description) != "" {
					kept = append(kept, c)
				}
			}
			out.AcceptanceCriteria = kept
		}
	}
	if out.AcceptanceCriteria == nil {
		out.AcceptanceCriteria = []types.AcceptanceCriterion{}
	}
	return out
}

// sanitizeLines drops unusable line information in place.
func sanitizeLines(ca *types.CodeAnalysis) {
	if ca.StartLine != nil && *ca.StartLine < 1 {
		ca.StartLine = nil
	}
	if ca.EndLine != nil && *ca.EndLine < 1 {
		ca.EndLine = nil
	}
	if ca.StartLine != nil && ca.EndLine != nil && *ca.StartLine > *ca.EndLine {
		ca.EndLine = nil
	}
	frames := ca.StackTrace[:0]
	for _, f := range ca.StackTrace {
		if strings.TrimSpace(f.File) == "" || f.Line < 1 {
			continue
		}
		if f.Column < 0 {
			f.Column = 0
		}
		frames = append(frames, f)
	}
	ca.StackTrace = frames
}

func logf(cfg Config, format string, args ...interface{}) {
	if cfg.LogWarnings {
		debug.Logf(format, args...)
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
