package lexicon

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/steveyegge/triage/internal/types"
)

// Output caps.
const (
	MaxRelatedFiles       = 10
	MaxRelatedSymbols     = 20
	MaxAcceptanceCriteria = 10
	MaxDescriptionRunes   = 500
)

// NoDescription is the placeholder for an empty body.
const NoDescription = "No description available"

// fileExtensions are the extensions that make a token look like a path.
var fileExtensions = map[string]bool{
	"go": true, "ts": true, "tsx": true, "js": true, "jsx": true, "mjs": true,
	"cjs": true, "py": true, "rb": true, "java": true, "kt": true, "kts": true,
	"scala": true, "groovy": true, "rs": true, "c": true, "h": true, "cc": true,
	"cpp": true, "hpp": true, "cs": true, "swift": true, "m": true, "php": true,
	"vue": true, "svelte": true, "json": true, "yaml": true, "yml": true,
	"toml": true, "xml": true, "html": true, "css": true, "scss": true,
	"sql": true, "sh": true, "md": true, "proto": true, "gradle": true,
	"tf": true, "ini": true, "lock": true, "mod": true, "dart": true,
	"ex": true, "exs": true, "erb": true, "graphql": true,
}

// frameworkNames end in .js but name products, not files.
var frameworkNames = map[string]bool{
	"node.js": true, "next.js": true, "vue.js": true, "react.js": true,
	"express.js": true, "nuxt.js": true, "three.js": true, "d3.js": true,
	"chart.js": true, "ember.js": true, "angular.js": true, "nest.js": true,
}

var (
	urlRe       = regexp.MustCompile(`(?i)\b(?:https?|ftp)://[^\s<>()\[\]"'` + "`" + `]+`)
	pathTokenRe = regexp.MustCompile(`^(?:\.{1,2}/|/|~/)?[\w@\-.]+(?:/[\w@\-.]+)*\.([A-Za-z0-9]+)$`)
	lineSuffix  = regexp.MustCompile(`(?::\d+)+$`)
	backtickRe  = regexp.MustCompile("`([^`\n]+)`")
	identRe     = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:(?:\.|::|#)[A-Za-z_$][\w$]*)*(?:\(\))?$`)
	callSiteRe  = regexp.MustCompile(`\b([A-Za-z_$][\w$]*)\(`)
	checkboxRe  = regexp.MustCompile(`(?m)^[ \t]*(?:[-*+]|\d+[.)])[ \t]+\[([ xX])\][ \t]+(\S.*?)[ \t]*$`)
	gwtLineRe   = regexp.MustCompile(`(?i)^(given|when|then|and|but)\b[:]?\s*(.*)$`)
	inlineGWTRe = regexp.MustCompile(`(?i)^given\s+(.+?),?\s+when\s+(.+?),?\s+then\s+(.+?)[.;]?$`)
	scenarioRe  = regexp.MustCompile(`(?i)^scenario(?:\s+outline)?\s*:\s*(.+)$`)
	bulletRe    = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
	headingRe   = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,6}(?:[ \t].*)?$`)
	fenceRe     = regexp.MustCompile("(?ms)^[ \t]*(```|~~~).*?^[ \t]*(```|~~~)[ \t]*$")
	spaceRe     = regexp.MustCompile(`\s+`)
)

// nonSymbols are language keywords and builtins that look like call sites.
var nonSymbols = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true,
	"function": true, "return": true, "typeof": true, "new": true,
	"await": true, "async": true, "super": true, "import": true,
	"require": true, "sizeof": true, "def": true, "func": true, "fn": true,
	"elif": true, "else": true, "with": true, "assert": true, "print": true,
	"in": true, "of": true, "e": true, "i": true, "eg": true, "ie": true,
}

// StripURLs removes URLs from text.
func StripURLs(text string) string {
	return urlRe.ReplaceAllString(text, " ")
}

// FindURLs returns the URLs in text in order.
func FindURLs(text string) []string {
	urls := urlRe.FindAllString(text, -1)
	for i, u := range urls {
		urls[i] = strings.TrimRight(u, ".,;:!?")
	}
	return urls
}

// IsFilePath reports whether token looks like a source file path.
func IsFilePath(token string) bool {
	m := pathTokenRe.FindStringSubmatch(token)
	if m == nil {
		return false
	}
	if !fileExtensions[strings.ToLower(m[1])] {
		return false
	}
	return !frameworkNames[strings.ToLower(token)]
}

// ExtractFilePaths returns extension-terminated path tokens in order of first
// appearance, without line suffixes, capped at limit (no cap if limit <= 0).
func ExtractFilePaths(text string, limit int) []string {
	text = StripURLs(text)
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune("()[]{}<>\"'`,;|=", r)
	})
	var out orderedSet
	for _, tok := range tokens {
		tok = strings.TrimRight(tok, ".:!?")
		tok = lineSuffix.ReplaceAllString(tok, "")
		tok = strings.TrimRight(tok, ".:")
		if tok == "" || !IsFilePath(tok) {
			continue
		}
		if out.add(tok) && limit > 0 && out.len() >= limit {
			break
		}
	}
	return out.items
}

// ExtractSymbols returns backticked identifiers followed by call-site
// identifiers, deduplicated, capped at limit (no cap if limit <= 0).
func ExtractSymbols(text string, limit int) []string {
	text = StripURLs(text)
	var out orderedSet
	full := func() bool { return limit > 0 && out.len() >= limit }

	for _, m := range backtickRe.FindAllStringSubmatch(text, -1) {
		sym := strings.TrimSpace(m[1])
		if !identRe.MatchString(sym) || IsFilePath(sym) {
			continue
		}
		sym = strings.TrimSuffix(sym, "()")
		if nonSymbols[strings.ToLower(sym)] {
			continue
		}
		if out.add(sym) && full() {
			return out.items
		}
	}
	for _, m := range callSiteRe.FindAllStringSubmatch(text, -1) {
		sym := m[1]
		if len(sym) < 2 || nonSymbols[strings.ToLower(sym)] {
			continue
		}
		if out.add(sym) && full() {
			return out.items
		}
	}
	return out.items
}

// ExtractCheckboxCriteria turns GitHub task-list items into criteria.
func ExtractCheckboxCriteria(text string) []types.AcceptanceCriterion {
	var out []types.AcceptanceCriterion
	for _, m := range checkboxRe.FindAllStringSubmatch(text, -1) {
		out = append(out, types.AcceptanceCriterion{
			Description: strings.TrimSpace(m[2]),
			Completed:   m[1] != " ",
		})
	}
	return out
}

// ExtractScenarios turns GIVEN/WHEN/THEN runs into criteria, either one
// clause per line or all three in one sentence ("Given x, when y, then z").
// "And"/"But" lines extend the preceding clause. A preceding "Scenario: name"
// line names the criterion; otherwise the Then clause does.
func ExtractScenarios(text string) []types.AcceptanceCriterion {
	var (
		out               []types.AcceptanceCriterion
		title             string
		lines             []string
		given, when, then bool
		thenText          string
	)
	flush := func() {
		if given && when && then {
			desc := title
			if desc == "" {
				desc = thenText
			}
			out = append(out, types.AcceptanceCriterion{
				Description: desc,
				Scenario:    strings.Join(lines, "\n"),
			})
		}
		title, lines, thenText = "", nil, ""
		given, when, then = false, false, false
	}

	for _, raw := range strings.Split(text, "\n") {
		line := normalizeClause(raw)
		if line == "" {
			continue
		}
		if m := scenarioRe.FindStringSubmatch(line); m != nil {
			flush()
			title = strings.TrimSpace(m[1])
			continue
		}
		if m := inlineGWTRe.FindStringSubmatch(line); m != nil {
			if given || when || then {
				flush()
			}
			given, when, then = true, true, true
			thenText = strings.TrimSpace(m[3])
			lines = []string{
				"Given " + strings.TrimSpace(m[1]),
				"When " + strings.TrimSpace(m[2]),
				"Then " + thenText,
			}
			continue
		}
		m := gwtLineRe.FindStringSubmatch(line)
		if m == nil {
			if given || when || then {
				flush()
			}
			continue
		}
		clause := strings.ToLower(m[1])
		body := strings.TrimSpace(m[2])
		switch clause {
		case "given":
			if given && (when || then) {
				flush()
			}
			given = true
		case "when":
			if then {
				flush()
			}
			if !given {
				continue
			}
			when = true
		case "then":
			if !given || !when {
				continue
			}
			then = true
			thenText = body
		default: // and, but
			if !given {
				continue
			}
			if then {
				thenText = strings.TrimSpace(thenText + " and " + body)
			}
		}
		lines = append(lines, capitalize(clause)+" "+body)
	}
	flush()
	return out
}

// ExtractCriteria returns checkbox criteria followed by scenarios, capped at
// MaxAcceptanceCriteria.
func ExtractCriteria(text string) []types.AcceptanceCriterion {
	out := append(ExtractCheckboxCriteria(text), ExtractScenarios(text)...)
	if len(out) > MaxAcceptanceCriteria {
		out = out[:MaxAcceptanceCriteria]
	}
	return out
}

// StripCodeFences removes fenced code blocks from text.
func StripCodeFences(text string) string {
	return fenceRe.ReplaceAllString(text, " ")
}

// CleanText strips headings, fenced code and URLs, then collapses whitespace.
func CleanText(text string) string {
	text = StripCodeFences(text)
	text = headingRe.ReplaceAllString(text, " ")
	text = StripURLs(text)
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// Summarize cleans text and truncates it to MaxDescriptionRunes, appending
// "..." when something was cut. Empty input yields NoDescription.
func Summarize(text string) string {
	clean := CleanText(text)
	if clean == "" {
		return NoDescription
	}
	cut := Truncate(clean, MaxDescriptionRunes)
	if len(cut) < len(clean) {
		return cut + "..."
	}
	return cut
}

func normalizeClause(line string) string {
	line = strings.TrimSpace(line)
	line = bulletRe.ReplaceAllString(line, "")
	line = strings.TrimLeft(line, "> ")
	// **Given** a user -> Given a user
	line = strings.NewReplacer("**", "", "__", "").Replace(line)
	return strings.TrimSpace(line)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// orderedSet keeps the first occurrence of each string.
type orderedSet struct {
	items []string
	seen  map[string]bool
}

func (s *orderedSet) add(v string) bool {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[v] {
		return false
	}
	s.seen[v] = true
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) len() int { return len(s.items) }
