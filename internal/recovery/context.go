// Package recovery implements the degraded parse path used when the section
// pipeline fails: keyword-only inference over raw text, context extraction,
// and defaulting of fields that failed validation.
package recovery

import "github.com/steveyegge/triage/internal/types"

// Context is the recovery state of one top-level parse call. It is a value:
// RecordError and RecordFallback return an updated copy and leave the
// receiver untouched, so a Context can be shared freely.
type Context struct {
	attempts  int
	errors    []*types.ParseError
	fallbacks []string
}

// NewContext returns an empty Context.
func NewContext() Context {
	return Context{}
}

// Attempts is the number of recorded errors and fallbacks.
func (c Context) Attempts() int {
	return c.attempts
}

// Errors returns the recorded errors in order.
func (c Context) Errors() []*types.ParseError {
	return append([]*types.ParseError(nil), c.errors...)
}

// FallbacksUsed returns the recorded strategy names in order.
func (c Context) FallbacksUsed() []string {
	return append([]string(nil), c.fallbacks...)
}

// RecordError returns a copy of c with err appended and one more attempt.
func (c Context) RecordError(err *types.ParseError) Context {
	next := c.clone()
	next.attempts++
	if err != nil {
		next.errors = append(next.errors, err)
	}
	return next
}

// RecordFallback returns a copy of c with strategy appended and one more
// attempt.
func (c Context) RecordFallback(strategy string) Context {
	next := c.clone()
	next.attempts++
	next.fallbacks = append(next.fallbacks, strategy)
	return next
}

// Summary converts c into the serializable audit trail.
func (c Context) Summary() types.RecoverySummary {
	s := types.RecoverySummary{
		Attempts:      c.attempts,
		FallbacksUsed: c.FallbacksUsed(),
	}
	for _, e := range c.errors {
		s.Errors = append(s.Errors, e.Summary())
	}
	return s
}

// clone copies the slices with exact capacity so appends on the copy can
// never write into the receiver's backing arrays.
func (c Context) clone() Context {
	return Context{
		attempts:  c.attempts,
		errors:    append(make([]*types.ParseError, 0, len(c.errors)+1), c.errors...),
		fallbacks: append(make([]string, 0, len(c.fallbacks)+1), c.fallbacks...),
	}
}
