// Package lexicon holds the fixed word lists and text extractors shared by
// the section parsers and the recovery engine. Both paths must classify the
// same text the same way, so the tables live here and nowhere else.
package lexicon

import (
	"regexp"
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// TypeOrder is the enumeration order of issue types. Keyword-score ties are
// broken in favour of the type that appears first here.
var TypeOrder = []types.IssueType{
	types.TypeBug,
	types.TypeFeature,
	types.TypeRefactor,
	types.TypeDocs,
	types.TypeTest,
	types.TypeChore,
}

// DefaultType is used when nothing in the text points at a type.
const DefaultType = types.TypeChore

// typeAliases are the label spellings accepted by the explicit type patterns.
var typeAliases = map[types.IssueType][]string{
	types.TypeBug:      {"bug", "bugfix", "defect"},
	types.TypeFeature:  {"feature", "feat", "enhancement"},
	types.TypeRefactor: {"refactor", "refactoring"},
	types.TypeDocs:     {"docs", "doc", "documentation"},
	types.TypeTest:     {"test", "tests", "testing"},
	types.TypeChore:    {"chore", "maintenance"},
}

// TypeKeywords are the six keyword lists scored in phase two of type
// classification. Matching is whole-word and case-insensitive.
var TypeKeywords = map[types.IssueType][]string{
	types.TypeBug: {
		"bug", "bugs", "error", "errors", "crash", "crashes", "crashed", "broken",
		"fail", "fails", "failed", "failure", "exception", "incorrect", "wrong",
		"defect", "regression",
	},
	types.TypeFeature: {
		"feature", "features", "add", "adding", "implement", "new", "support",
		"enhancement", "request", "ability", "allow", "introduce",
	},
	types.TypeRefactor: {
		"refactor", "refactoring", "cleanup", "restructure", "simplify",
		"reorganize", "rename", "extract", "duplicate", "duplication", "debt",
		"modularize",
	},
	types.TypeDocs: {
		"docs", "documentation", "document", "readme", "guide", "typo",
		"tutorial", "docstring", "changelog",
	},
	types.TypeTest: {
		"test", "tests", "testing", "coverage", "unit", "integration", "e2e",
		"flaky", "assertion", "mock",
	},
	types.TypeChore: {
		"chore", "dependency", "dependencies", "upgrade", "bump", "config",
		"configuration", "ci", "build", "maintenance", "version", "release",
		"lint",
	},
}

// TypePattern is one entry of the ordered explicit-type pattern list.
type TypePattern struct {
	Type types.IssueType
	Form string // "exact", "label" or "bracket"
	Re   *regexp.Regexp
}

// TypePatterns is evaluated top to bottom; the first match wins. All exact
// lines come first, then "type: x" labels, then "[x]" tags, each group in
// TypeOrder.
var TypePatterns = func() []TypePattern {
	forms := []struct {
		name string
		tmpl string
	}{
		{"exact", `(?im)^[ \t]*(?:%s)[ \t]*$`},
		{"label", `(?i)\btype[ \t]*:[ \t]*\**[ \t]*(?:%s)\b`},
		{"bracket", `(?i)\[(?:%s)\]`},
	}
	var out []TypePattern
	for _, f := range forms {
		for _, t := range TypeOrder {
			alt := strings.Join(typeAliases[t], "|")
			out = append(out, TypePattern{
				Type: t,
				Form: f.name,
				Re:   regexp.MustCompile(strings.Replace(f.tmpl, "%s", alt, 1)),
			})
		}
	}
	return out
}()

var typeKeywordRe = func() map[types.IssueType]*regexp.Regexp {
	m := make(map[types.IssueType]*regexp.Regexp, len(TypeKeywords))
	for t, words := range TypeKeywords {
		m[t] = wordsRe(words)
	}
	return m
}()

// MatchTypePattern runs the explicit pattern list over text.
func MatchTypePattern(text string) (types.IssueType, bool) {
	for _, p := range TypePatterns {
		if p.Re.MatchString(text) {
			return p.Type, true
		}
	}
	return "", false
}

// ScoreTypes counts whole-word keyword occurrences per type.
func ScoreTypes(text string) map[types.IssueType]int {
	scores := make(map[types.IssueType]int, len(TypeOrder))
	for _, t := range TypeOrder {
		scores[t] = len(typeKeywordRe[t].FindAllStringIndex(text, -1))
	}
	return scores
}

// ClassifyByKeywords picks the type with the strictly highest keyword score.
// Ties go to the earlier type in TypeOrder; all-zero scores yield DefaultType.
func ClassifyByKeywords(text string) types.IssueType {
	scores := ScoreTypes(text)
	best, bestScore := DefaultType, 0
	for _, t := range TypeOrder {
		if scores[t] > bestScore {
			best, bestScore = t, scores[t]
		}
	}
	return best
}

// InferType runs both classification phases over raw text.
func InferType(text string) types.IssueType {
	if t, ok := MatchTypePattern(text); ok {
		return t
	}
	return ClassifyByKeywords(text)
}

// sourceKeywords is checked in order; the first mention wins.
var sourceKeywords = []struct {
	Source types.Source
	Re     *regexp.Regexp
}{
	{types.SourceSentry, wordsRe([]string{"sentry"})},
	{types.SourceAsana, wordsRe([]string{"asana"})},
	{types.SourceGitHub, wordsRe([]string{"github"})},
}

// SourceFromKeywords infers the issue source from a keyword mention.
func SourceFromKeywords(text string) (types.Source, bool) {
	for _, k := range sourceKeywords {
		if k.Re.MatchString(text) {
			return k.Source, true
		}
	}
	return "", false
}

// InferSource is SourceFromKeywords with the manual default applied.
func InferSource(text string) types.Source {
	if s, ok := SourceFromKeywords(text); ok {
		return s
	}
	return types.SourceManual
}

// priorityCues are checked in order; the first cue present wins.
var priorityCues = []struct {
	Priority types.Priority
	Re       *regexp.Regexp
}{
	{types.PriorityCritical, wordsRe([]string{"critical", "urgent"})},
	{types.PriorityHigh, wordsRe([]string{"high"})},
	{types.PriorityLow, wordsRe([]string{"low"})},
}

// PriorityFromCues maps cue words in free text to a priority, defaulting to
// medium.
func PriorityFromCues(text string) types.Priority {
	for _, c := range priorityCues {
		if c.Re.MatchString(text) {
			return c.Priority
		}
	}
	return types.PriorityMedium
}

// priorityValues maps explicit field values (Priority: P1) to priorities.
var priorityValues = map[string]types.Priority{
	"critical": types.PriorityCritical,
	"urgent":   types.PriorityCritical,
	"blocker":  types.PriorityCritical,
	"highest":  types.PriorityCritical,
	"p0":       types.PriorityCritical,
	"high":     types.PriorityHigh,
	"p1":       types.PriorityHigh,
	"medium":   types.PriorityMedium,
	"normal":   types.PriorityMedium,
	"moderate": types.PriorityMedium,
	"p2":       types.PriorityMedium,
	"low":      types.PriorityLow,
	"lowest":   types.PriorityLow,
	"minor":    types.PriorityLow,
	"trivial":  types.PriorityLow,
	"p3":       types.PriorityLow,
	"p4":       types.PriorityLow,
}

// PriorityFromValue parses an explicit priority field value.
func PriorityFromValue(v string) (types.Priority, bool) {
	v = strings.ToLower(strings.Trim(strings.TrimSpace(v), "*_`"))
	if f := strings.Fields(v); len(f) > 0 {
		v = f[0]
	}
	p, ok := priorityValues[v]
	return p, ok
}

// Confidence levels produced by FixConfidence.
const (
	ConfidenceCertain   = 0.9
	ConfidenceProbable  = 0.7
	ConfidenceDefault   = 0.5
	ConfidenceUncertain = 0.3
)

var (
	certaintyRe   = wordsRe([]string{"definitely", "certain", "certainly", "must", "always", "exactly", "clearly", "confirmed"})
	uncertaintyRe = wordsRe([]string{"maybe", "unsure", "not sure", "guess", "try", "perhaps", "possibly", "might"})
	probableRe    = wordsRe([]string{"probably", "should", "likely"})
)

// FixConfidence derives a suggested-fix confidence from cue words. Certainty
// outweighing uncertainty gives ConfidenceCertain, the reverse gives
// ConfidenceUncertain, a tie between them gives ConfidenceDefault. With
// neither present, "probably"/"should"/"likely" give ConfidenceProbable.
func FixConfidence(text string) float64 {
	certain := len(certaintyRe.FindAllStringIndex(text, -1))
	uncertain := len(uncertaintyRe.FindAllStringIndex(text, -1))
	switch {
	case certain > uncertain:
		return ConfidenceCertain
	case uncertain > certain:
		return ConfidenceUncertain
	case certain > 0:
		return ConfidenceDefault
	case probableRe.MatchString(text):
		return ConfidenceProbable
	}
	return ConfidenceDefault
}

// wordsRe compiles a case-insensitive whole-word alternation.
func wordsRe(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
