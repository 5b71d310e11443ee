package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

func mustParse(t *testing.T, src string) *markdown.Document {
	t.Helper()
	doc, err := markdown.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func TestExtractError(t *testing.T) {
	tests := []struct {
		name, text, msg, typ string
	}{
		{"js", "TypeError: Cannot read properties of undefined (reading 'id')", "Cannot read properties of undefined (reading 'id')", "TypeError"},
		{"java thread", `Exception in thread "main" java.lang.NullPointerException: boom`, "boom", "NullPointerException"},
		{"bare exception", "java.lang.IllegalStateException", "java.lang.IllegalStateException", "IllegalStateException"},
		{"python", "Traceback (most recent call last):\nValueError: bad input", "bad input", "ValueError"},
		{"go panic", "panic: runtime error: invalid memory address [recovered]", "runtime error: invalid memory address", "panic"},
		{"rust old", "thread 'main' panicked at 'explicit panic', src/main.rs:2:5", "explicit panic", "panic"},
		{"rust new", "thread 'main' panicked at src/main.rs:4:5:\nindex out of bounds", "index out of bounds", "panic"},
		{"generic", "The upload failed for large files", "The upload failed for large files", ""},
		{"none", "all good", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, typ := ExtractError(tt.text)
			assert.Equal(t, tt.msg, msg)
			assert.Equal(t, tt.typ, typ)
		})
	}
}

func TestExtractLineRange(t *testing.T) {
	tests := []struct {
		text       string
		start, end *int
	}{
		{"see lines 10-20", types.Line(10), types.Line(20)},
		{"Lines 3 to 5 are wrong", types.Line(3), types.Line(5)},
		{"broken on line 7", types.Line(7), types.Line(7)},
		{"See lines 0-4 in handler.go", types.Line(0), types.Line(4)},
		{"no numbers", nil, nil},
	}
	for _, tt := range tests {
		start, end := ExtractLineRange(tt.text)
		assert.Equal(t, tt.start, start, tt.text)
		assert.Equal(t, tt.end, end, tt.text)
	}
}

func TestParseCodeAnalysisSection(t *testing.T) {
	doc := mustParse(t, "## Problem Description\nLogin crashes.\n\n"+
		"## Code Analysis\n"+
		"File: `src/auth/login.ts`\n"+
		"Function: `validateToken()`\n"+
		"Lines 40-52 hold the bad read.\n\n"+
		"```ts\nconst user = token.user.id;\n```\n")

	ca, err := ParseCodeAnalysis(doc)
	require.NoError(t, err)
	require.NotNil(t, ca)

	assert.Equal(t, "src/auth/login.ts", ca.FilePath)
	assert.Equal(t, "validateToken", ca.FunctionName)
	assert.Empty(t, ca.ClassName)
	assert.Equal(t, types.Line(40), ca.StartLine)
	assert.Equal(t, types.Line(52), ca.EndLine)
	assert.Equal(t, "typescript", ca.Language)
	assert.Contains(t, ca.Snippet, "const user = token.user.id;")
	assert.Empty(t, ca.StackTrace)
}

func TestParseCodeAnalysisStackTraceHeading(t *testing.T) {
	doc := mustParse(t, "Crash on save.\n\n## Stack Trace\n\n```\n"+
		"TypeError: Cannot read properties of undefined (reading 'id')\n"+
		"    at Store.save (/app/src/store.js:42:13)\n"+
		"    at processRequest (/app/src/server.js:10:5)\n"+
		"```\n")

	ca, err := ParseCodeAnalysis(doc)
	require.NoError(t, err)
	require.NotNil(t, ca)

	assert.Equal(t, "/app/src/store.js", ca.FilePath)
	assert.Equal(t, types.Line(42), ca.StartLine)
	assert.Equal(t, types.Line(42), ca.EndLine)
	assert.Equal(t, "Store", ca.ClassName)
	assert.Equal(t, "save", ca.FunctionName)
	assert.Equal(t, "TypeError", ca.ErrorType)
	assert.Equal(t, "Cannot read properties of undefined (reading 'id')", ca.ErrorMessage)
	assert.Equal(t, "javascript", ca.Language)
	assert.Len(t, ca.StackTrace, 2)
	// The only block is the trace itself.
	assert.Empty(t, ca.Snippet)
}

func TestParseCodeAnalysisMergesHeadings(t *testing.T) {
	doc := mustParse(t, "## Code Analysis\nLine 12 of the handler.\n\n"+
		"## Error Message\npanic: nil map write\n")

	ca, err := ParseCodeAnalysis(doc)
	require.NoError(t, err)
	require.NotNil(t, ca)
	assert.Equal(t, types.Line(12), ca.StartLine)
	assert.Equal(t, "nil map write", ca.ErrorMessage)
	assert.Equal(t, "panic", ca.ErrorType)
}

func TestParseCodeAnalysisFencedBlockOnly(t *testing.T) {
	doc := mustParse(t, "Something is off.\n\n```python\ntotal = sum(rows) / len(rows)\n```\n")

	ca, err := ParseCodeAnalysis(doc)
	require.NoError(t, err)
	require.NotNil(t, ca)
	assert.Contains(t, ca.Snippet, "total = sum(rows)")
	assert.Equal(t, "python", ca.Language)
	assert.Empty(t, ca.FilePath)
}

func TestParseCodeAnalysisBareTrace(t *testing.T) {
	doc := mustParse(t, "Worker died.\n\n  File \"app/main.py\", line 3, in run\n")

	ca, err := ParseCodeAnalysis(doc)
	require.NoError(t, err)
	require.NotNil(t, ca)
	assert.Equal(t, "app/main.py", ca.FilePath)
	assert.Equal(t, types.Line(3), ca.StartLine)
	assert.Equal(t, "run", ca.FunctionName)
	assert.Equal(t, "python", ca.Language)
}

func TestParseCodeAnalysisAbsent(t *testing.T) {
	ca, err := ParseCodeAnalysis(mustParse(t, "Just words about the settings page.\n"))
	require.NoError(t, err)
	assert.Nil(t, ca)

	_, err = ParseCodeAnalysis(nil)
	require.Error(t, err)
}
