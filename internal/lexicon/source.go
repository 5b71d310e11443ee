package lexicon

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/steveyegge/triage/internal/types"
)

// sourceHosts maps a source to a predicate over URL hosts.
var sourceHosts = map[types.Source]func(host string) bool{
	types.SourceSentry: func(h string) bool { return h == "sentry.io" || strings.HasSuffix(h, ".sentry.io") },
	types.SourceAsana:  func(h string) bool { return h == "asana.com" || strings.HasSuffix(h, ".asana.com") },
	types.SourceGitHub: func(h string) bool { return h == "github.com" || h == "www.github.com" },
}

var (
	idFieldRe     = regexp.MustCompile(`(?im)^[ \t>*+-]*\**(?:(?:sentry|asana|github|issue|task)[ \t]+)?id\**[ \t]*:[ \t]*\**[ \t]*#?([\w-]+)`)
	hashRefRe     = regexp.MustCompile(`(?:^|\s)#(\d+)\b`)
	sentryPathRe  = regexp.MustCompile(`/issues/(\d+)`)
	githubPathRe  = regexp.MustCompile(`/(?:issues|pull)/(\d+)`)
	numericPathRe = regexp.MustCompile(`^\d+$`)
)

// SourceURL returns the first URL in text that points at src's host.
func SourceURL(src types.Source, text string) string {
	match := sourceHosts[src]
	if match == nil {
		return ""
	}
	for _, raw := range FindURLs(text) {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if match(strings.ToLower(u.Hostname())) {
			return raw
		}
	}
	return ""
}

// SourceID returns the external identifier of the issue: an explicit
// "ID: x" field, a "#123" reference for GitHub, or the id embedded in
// sourceURL.
func SourceID(src types.Source, text, sourceURL string) string {
	if m := idFieldRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if src == types.SourceGitHub {
		if m := hashRefRe.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return idFromURL(src, sourceURL)
}

func idFromURL(src types.Source, raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch src {
	case types.SourceSentry:
		if m := sentryPathRe.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	case types.SourceGitHub:
		if m := githubPathRe.FindStringSubmatch(u.Path); m != nil {
			return m[1]
		}
	case types.SourceAsana:
		// https://app.asana.com/0/<project>/<task>[/f]
		segs := strings.Split(strings.Trim(u.Path, "/"), "/")
		for i := len(segs) - 1; i >= 0; i-- {
			if numericPathRe.MatchString(segs[i]) {
				return segs[i]
			}
		}
	}
	return ""
}
