package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/types"
)

const issueBody = `## Source
GitHub #12

## Type
bug

## Problem Description
Saving a draft in ` + "`src/editor/save.ts`" + ` throws when offline.

## Acceptance Criteria
- [ ] Drafts save offline
`

func newTestServer() *Server {
	opts := parser.DefaultOptions()
	opts.Fallback.LogWarnings = false
	return NewServer("test", opts)
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	s := NewServer("1.2.3", nil)
	require.NotNil(t, s.mcp)
	assert.True(t, s.base.EnableFallback, "nil options fall back to defaults")
}

func TestParseIssueTool(t *testing.T) {
	s := newTestServer()
	res, err := s.handleParseIssue(context.Background(), call("parse_issue", map[string]interface{}{
		"body": issueBody,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	var out types.ParseResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, types.SourceGitHub, out.Issue.Source)
	assert.Equal(t, "12", out.Issue.SourceID)
	assert.Equal(t, types.TypeBug, out.Issue.Type)
	assert.Equal(t, []string{"src/editor/save.ts"}, out.Issue.Context.RelatedFiles)
	assert.Len(t, out.Issue.AcceptanceCriteria, 1)
}

func TestParseIssueToolFallbackOff(t *testing.T) {
	s := newTestServer()
	res, err := s.handleParseIssue(context.Background(), call("parse_issue", map[string]interface{}{
		"body":     "   ",
		"fallback": false,
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, string(types.ErrInvalidFormat), out["code"])
}

func TestParseIssueToolParams(t *testing.T) {
	s := newTestServer()
	tests := []struct {
		name string
		args interface{}
	}{
		{"not a map", "body"},
		{"missing body", map[string]interface{}{}},
		{"body not string", map[string]interface{}{"body": 3}},
		{"max attempts too high", map[string]interface{}{"body": "x", "max_attempts": float64(99)}},
		{"max attempts zero", map[string]interface{}{"body": "x", "max_attempts": 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req mcp.CallToolRequest
			req.Params.Arguments = tt.args
			_, err := s.handleParseIssue(context.Background(), req)
			var mcpErr *MCPError
			require.True(t, errors.As(err, &mcpErr), "got %v", err)
			assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
		})
	}
}

func TestValidateIssueTool(t *testing.T) {
	s := newTestServer()
	res, err := s.handleValidateIssue(context.Background(), call("validate_issue", map[string]interface{}{
		"body": issueBody,
	}))
	require.NoError(t, err)

	var out types.ValidationResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.True(t, out.Valid)

	res, err = s.handleValidateIssue(context.Background(), call("validate_issue", map[string]interface{}{
		"body": "",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestClassifyIssueTool(t *testing.T) {
	s := newTestServer()
	res, err := s.handleClassifyIssue(context.Background(), call("classify_issue", map[string]interface{}{
		"body": "Sentry alert: checkout is broken, this is urgent",
	}))
	require.NoError(t, err)

	var out parser.Classification
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, types.SourceSentry, out.Source)
	assert.Equal(t, types.TypeBug, out.Type)
	assert.Equal(t, types.PriorityCritical, out.Priority)
}

func TestToolSchemas(t *testing.T) {
	for _, tool := range []mcp.Tool{parseIssueTool(), validateIssueTool(), classifyIssueTool()} {
		assert.Equal(t, []string{"body"}, tool.InputSchema.Required, tool.Name)
		assert.Contains(t, tool.InputSchema.Properties, "body", tool.Name)
	}
}
