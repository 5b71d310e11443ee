package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var bodyProperty = map[string]interface{}{
	"type":        "string",
	"description": "Markdown issue body",
}

func parseIssueTool() mcp.Tool {
	return mcp.Tool{
		Name:        "parse_issue",
		Description: "Parse a Markdown issue body into structured triage data (source, type, context, code analysis, fix, acceptance criteria)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"body": bodyProperty,
				"strict": map[string]interface{}{
					"type":        "boolean",
					"description": "Fail on validation warnings as well as errors",
					"default":     false,
				},
				"fallback": map[string]interface{}{
					"type":        "boolean",
					"description": "Recover from parse and validation failures with inferred values",
					"default":     true,
				},
				"skip_validation": map[string]interface{}{
					"type":        "boolean",
					"description": "Report the result as valid without running the validator",
					"default":     false,
				},
				"max_attempts": map[string]interface{}{
					"type":        "integer",
					"description": "Recovery attempt budget (1-10)",
					"default":     3,
					"minimum":     1,
					"maximum":     10,
				},
			},
			Required: []string{"body"},
		},
	}
}

func validateIssueTool() mcp.Tool {
	return mcp.Tool{
		Name:        "validate_issue",
		Description: "Parse an issue body without recovery and report its validation errors and warnings",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"body": bodyProperty,
			},
			Required: []string{"body"},
		},
	}
}

func classifyIssueTool() mcp.Tool {
	return mcp.Tool{
		Name:        "classify_issue",
		Description: "Classify an issue body: source, type and priority only",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"body": bodyProperty,
			},
			Required: []string{"body"},
		},
	}
}
