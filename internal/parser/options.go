package parser

import (
	"time"

	"github.com/steveyegge/triage/internal/recovery"
)

// MaxBodyBytes is the largest body ParseIssueBody accepts.
const MaxBodyBytes = 1 << 20

// Options controls ParseIssueBody.
type Options struct {
	// Strict turns validation warnings into a VALIDATION_ERROR.
	Strict bool `json:"strict" yaml:"strict"`

	// EnableFallback lets failed parses recover through the recovery engine.
	EnableFallback bool            `json:"enable_fallback" yaml:"enable-fallback"`
	Fallback       recovery.Config `json:"fallback" yaml:"fallback"`

	// SkipValidation reports every result as valid without running the
	// validator.
	SkipValidation bool `json:"skip_validation" yaml:"skip-validation"`

	// Now anchors relative due dates. Defaults to time.Now.
	Now func() time.Time `json:"-" yaml:"-"`
}

// DefaultOptions returns the documented defaults: non-strict, fallback on
// with every strategy, validation on.
func DefaultOptions() *Options {
	return &Options{
		EnableFallback: true,
		Fallback:       recovery.DefaultConfig(),
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
