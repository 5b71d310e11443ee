package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/steveyegge/triage/internal/parser"
	"github.com/steveyegge/triage/internal/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602
	ErrorCodeInternalError = -32603
)

// MaxAttemptsLimit caps the max_attempts argument.
const MaxAttemptsLimit = 10

func (s *Server) handleParseIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, body, err := bodyArgs(request)
	if err != nil {
		return nil, err
	}

	opts := s.base
	opts.Strict = getBoolDefault(args, "strict", opts.Strict)
	opts.EnableFallback = getBoolDefault(args, "fallback", opts.EnableFallback)
	opts.SkipValidation = getBoolDefault(args, "skip_validation", opts.SkipValidation)
	opts.Fallback.MaxAttempts = getIntDefault(args, "max_attempts", opts.Fallback.MaxAttempts)
	if opts.Fallback.MaxAttempts < 1 || opts.Fallback.MaxAttempts > MaxAttemptsLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("max_attempts must be between 1 and %d", MaxAttemptsLimit), map[string]interface{}{
			"param":  "max_attempts",
			"reason": "out of range",
		})
	}

	res, err := parser.ParseIssueBody(ctx, body, &opts)
	if err != nil {
		return parseFailure(err)
	}
	return jsonResult(res)
}

func (s *Server) handleValidateIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, body, err := bodyArgs(request)
	if err != nil {
		return nil, err
	}
	_, res, err := parser.CheckIssueBody(ctx, body)
	if err != nil {
		return parseFailure(err)
	}
	return jsonResult(res)
}

func (s *Server) handleClassifyIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, body, err := bodyArgs(request)
	if err != nil {
		return nil, err
	}
	opts := s.base
	c, err := parser.Classify(ctx, body, &opts)
	if err != nil {
		return parseFailure(err)
	}
	return jsonResult(c)
}

// bodyArgs extracts the argument map and the required body.
func bodyArgs(request mcp.CallToolRequest) (map[string]interface{}, string, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	body, ok := args["body"].(string)
	if !ok {
		return nil, "", newMCPError(ErrorCodeInvalidParams, "body parameter is required", map[string]interface{}{
			"param":  "body",
			"reason": "missing or not a string",
		})
	}
	return args, body, nil
}

// parseFailure reports an engine error as a tool-level error so the
// calling agent sees the code and can react to it.
func parseFailure(err error) (*mcp.CallToolResult, error) {
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		return nil, newMCPError(ErrorCodeInternalError, "parse failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultError(formatJSON(map[string]interface{}{
		"error":   pe.Error(),
		"code":    pe.Code,
		"section": pe.Section,
	})), nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "encoding result", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return mcp.NewToolResultText(string(data)), nil
}

// MCPError is a protocol-level error returned from a handler.
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(b)
}

func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return defaultValue
}

// getIntDefault accepts JSON numbers (float64) as well as ints.
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return defaultValue
}
