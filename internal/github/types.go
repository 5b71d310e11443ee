// Package github connects the parser to GitHub issues: it fetches issue
// bodies for parsing and turns a parsed issue back into a GitHub issue with
// a canonical body and scoped labels.
package github

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/steveyegge/triage/internal/types"
)

// API configuration constants.
const (
	DefaultAPIEndpoint = "https://api.github.com"
	DefaultTimeout     = 30 * time.Second

	// MaxRetries bounds retries of rate-limited and 5xx responses.
	MaxRetries = 3

	// RetryDelay is the initial backoff interval.
	RetryDelay = time.Second

	// MaxRetryAfter caps how long a Retry-After header can stall a request.
	MaxRetryAfter = time.Minute

	MaxPageSize = 100

	// MaxPages stops runaway pagination from malformed Link headers.
	MaxPages = 100
)

// Client talks to the GitHub REST API for one repository.
type Client struct {
	Token      string
	Owner      string
	Repo       string
	BaseURL    string
	HTTPClient *http.Client
	RetryDelay time.Duration
}

// Issue is the subset of the GitHub issue resource triage reads.
type Issue struct {
	ID          int        `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"`
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	Labels      []Label    `json:"labels"`
	User        *User      `json:"user,omitempty"`
	HTMLURL     string     `json:"html_url"`
	PullRequest *PullRef   `json:"pull_request,omitempty"` // Non-nil for PRs
}

// PullRef marks an entry of the issues endpoint as a pull request.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// User is a GitHub account.
type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
}

// Label is a GitHub label.
type Label struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewIssue is the payload of an issue creation.
type NewIssue struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	Labels []string `json:"labels,omitempty"`
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: %s (status %d)", e.Message, e.StatusCode)
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

var repoRe = regexp.MustCompile(`^([A-Za-z0-9][A-Za-z0-9-]*)/([A-Za-z0-9._-]+)$`)

// ParseRepo splits "owner/name".
func ParseRepo(s string) (owner, name string, err error) {
	m := repoRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", fmt.Errorf("invalid repository %q: want owner/name", s)
	}
	return m[1], m[2], nil
}

// ParseLabelName splits a scoped label like "priority:high" or
// "priority/high". Unscoped labels return an empty prefix.
func ParseLabelName(label string) (prefix, value string) {
	if p, v, ok := strings.Cut(label, ":"); ok {
		return p, v
	}
	if p, v, ok := strings.Cut(label, "/"); ok {
		return p, v
	}
	return "", label
}

// LabelNames returns the names of labels in order.
func LabelNames(labels []Label) []string {
	names := make([]string, len(labels))
	for i, l := range labels {
		names[i] = l.Name
	}
	return names
}

// TypeFromLabels finds an issue type in "type:x" or bare labels.
func TypeFromLabels(labels []Label) (types.IssueType, bool) {
	for _, l := range labels {
		prefix, value := ParseLabelName(l.Name)
		if prefix != "" && prefix != "type" {
			continue
		}
		if t, ok := labelTypes[strings.ToLower(value)]; ok {
			return t, true
		}
	}
	return "", false
}

// PriorityFromLabels finds a priority in "priority:x" or P0-P3 labels.
func PriorityFromLabels(labels []Label) (types.Priority, bool) {
	for _, l := range labels {
		prefix, value := ParseLabelName(l.Name)
		if prefix == "" {
			if p, ok := shorthandPriorities[strings.ToUpper(value)]; ok {
				return p, true
			}
			continue
		}
		if prefix == "priority" {
			if p := types.Priority(strings.ToLower(value)); p.IsValid() {
				return p, true
			}
		}
	}
	return "", false
}

var labelTypes = map[string]types.IssueType{
	"bug":           types.TypeBug,
	"defect":        types.TypeBug,
	"feature":       types.TypeFeature,
	"enhancement":   types.TypeFeature,
	"refactor":      types.TypeRefactor,
	"docs":          types.TypeDocs,
	"documentation": types.TypeDocs,
	"test":          types.TypeTest,
	"tests":         types.TypeTest,
	"chore":         types.TypeChore,
	"dependencies":  types.TypeChore,
}

var shorthandPriorities = map[string]types.Priority{
	"P0": types.PriorityCritical,
	"P1": types.PriorityHigh,
	"P2": types.PriorityMedium,
	"P3": types.PriorityLow,
}
