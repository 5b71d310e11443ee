package config

import "github.com/steveyegge/triage/internal/parser"

// ParserOptions maps the configuration onto parser options. Without an
// initialized config it returns parser.DefaultOptions().
func ParserOptions() *parser.Options {
	opts := parser.DefaultOptions()
	if v == nil {
		return opts
	}
	opts.Strict = GetBool("strict")
	opts.SkipValidation = GetBool("skip-validation")
	opts.EnableFallback = GetBool("fallback.enabled")
	opts.Fallback.UseDefaults = GetBool("fallback.use-defaults")
	opts.Fallback.InferFromContext = GetBool("fallback.infer-from-context")
	opts.Fallback.LogWarnings = GetBool("fallback.log-warnings")
	if n := GetInt("fallback.max-attempts"); n > 0 {
		opts.Fallback.MaxAttempts = n
	}
	return opts
}
