package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/triage/internal/debug"
)

const maxResponseSize = 10 * 1024 * 1024

// NewClient creates a client for owner/repo on api.github.com.
func NewClient(token, owner, repo string) *Client {
	return &Client{
		Token:      token,
		Owner:      owner,
		Repo:       repo,
		BaseURL:    DefaultAPIEndpoint,
		HTTPClient: &http.Client{Timeout: DefaultTimeout},
		RetryDelay: RetryDelay,
	}
}

// WithHTTPClient returns a copy of c using httpClient.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	cp := *c
	cp.HTTPClient = httpClient
	return &cp
}

// WithBaseURL returns a copy of c pointed at baseURL (GitHub Enterprise or tests).
func (c *Client) WithBaseURL(baseURL string) *Client {
	cp := *c
	cp.BaseURL = baseURL
	return &cp
}

func (c *Client) repoPath() string {
	return "/repos/" + url.PathEscape(c.Owner) + "/" + url.PathEscape(c.Repo)
}

func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.BaseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}
	return u
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.RetryDelay
	if b.InitialInterval <= 0 {
		b.InitialInterval = RetryDelay
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

// doRequest sends an authenticated request, retrying network failures,
// rate limits and 5xx responses with exponential backoff.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, http.Header, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var (
		respBody []byte
		headers  http.Header
		attempt  int
	)
	op := func() error {
		attempt++
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("request failed (attempt %d): %w", attempt, err)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response (attempt %d): %w", attempt, err)
		}

		if rateLimited(resp) {
			waitRetryAfter(ctx, resp.Header.Get("Retry-After"))
			return &APIError{StatusCode: http.StatusTooManyRequests, Message: "rate limited"}
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: apiMessage(data)}
			if apiErr.Temporary() {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}
		respBody, headers = data, resp.Header
		return nil
	}

	notify := func(err error, wait time.Duration) {
		debug.Logf("github: %s %s: %v, retrying in %s\n", method, urlStr, err, wait)
	}
	if err := backoff.RetryNotify(op, c.newBackOff(ctx), notify); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Temporary() {
			return nil, nil, fmt.Errorf("max retries (%d) exceeded: %w", MaxRetries+1, err)
		}
		return nil, nil, err
	}
	return respBody, headers, nil
}

// rateLimited recognizes GitHub's two throttling responses: 429, and 403
// with X-RateLimit-Remaining: 0.
func rateLimited(resp *http.Response) bool {
	return resp.StatusCode == http.StatusTooManyRequests ||
		(resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0")
}

func waitRetryAfter(ctx context.Context, header string) {
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return
	}
	d := time.Duration(seconds) * time.Second
	if d > MaxRetryAfter {
		d = MaxRetryAfter
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// apiMessage pulls "message" out of a GitHub error body.
func apiMessage(data []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &e) == nil && e.Message != "" {
		return e.Message
	}
	return string(data)
}

var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// hasNextPage returns the "next" URL of a Link header.
func hasNextPage(headers http.Header) (string, bool) {
	m := linkNextPattern.FindStringSubmatch(headers.Get("Link"))
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// FetchIssue retrieves one issue by number.
func (c *Client) FetchIssue(ctx context.Context, number int) (*Issue, error) {
	urlStr := c.buildURL(c.repoPath()+"/issues/"+strconv.Itoa(number), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch issue #%d: %w", number, err)
	}
	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse issue response: %w", err)
	}
	if issue.PullRequest != nil {
		return nil, fmt.Errorf("#%d is a pull request, not an issue", number)
	}
	return &issue, nil
}

// FetchIssues pages through the repository's issues in the given state
// ("open", "closed" or "all"), skipping pull requests. limit <= 0 means no limit.
func (c *Client) FetchIssues(ctx context.Context, state string, limit int) ([]Issue, error) {
	if state == "" {
		state = "open"
	}
	var all []Issue
	for page := 1; ; page++ {
		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
		params := map[string]string{
			"state":    state,
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, c.buildURL(c.repoPath()+"/issues", params), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues: %w", err)
		}
		var issues []Issue
		if err := json.Unmarshal(respBody, &issues); err != nil {
			return nil, fmt.Errorf("failed to parse issues response: %w", err)
		}
		for _, is := range issues {
			if is.PullRequest != nil {
				continue
			}
			all = append(all, is)
			if limit > 0 && len(all) >= limit {
				return all, nil
			}
		}
		if _, ok := hasNextPage(headers); !ok {
			return all, nil
		}
	}
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, in NewIssue) (*Issue, error) {
	urlStr := c.buildURL(c.repoPath()+"/issues", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}
	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	return &issue, nil
}
