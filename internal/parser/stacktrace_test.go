package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/triage/internal/types"
)

func TestParseStackTraceDialects(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		dialect  string
		language string
		want     []types.StackFrame
	}{
		{
			name:     "node",
			text:     "TypeError: boom\n    at UserService.getUser (/app/src/user.js:42:13)\n    at async handler (/app/src/api.js:7:2)",
			dialect:  "node",
			language: "javascript",
			want: []types.StackFrame{
				{File: "/app/src/user.js", Line: 42, Column: 13, Function: "UserService.getUser"},
				{File: "/app/src/api.js", Line: 7, Column: 2, Function: "handler"},
			},
		},
		{
			name:     "python",
			text:     "Traceback (most recent call last):\n  File \"/app/main.py\", line 10, in handler\n    run()\n  File \"/app/jobs.py\", line 3, in run",
			dialect:  "python",
			language: "python",
			want: []types.StackFrame{
				{File: "/app/main.py", Line: 10, Function: "handler"},
				{File: "/app/jobs.py", Line: 3, Function: "run"},
			},
		},
		{
			name:     "java",
			text:     "java.lang.NullPointerException\n\tat com.example.UserService.getUser(UserService.java:88)\n\tat com.example.Api.handle(Api.java:12)",
			dialect:  "java",
			language: "java",
			want: []types.StackFrame{
				{File: "UserService.java", Line: 88, Function: "com.example.UserService.getUser"},
				{File: "Api.java", Line: 12, Function: "com.example.Api.handle"},
			},
		},
		{
			name:     "go",
			text:     "goroutine 1 [running]:\nmain.(*Server).Handle(0xc000010000)\n\t/home/u/app/server.go:42 +0x1d\nmain.main()\n\t/home/u/app/main.go:9 +0x25",
			dialect:  "go",
			language: "go",
			want: []types.StackFrame{
				{File: "/home/u/app/server.go", Line: 42, Function: "main.(*Server).Handle"},
				{File: "/home/u/app/main.go", Line: 9, Function: "main.main"},
			},
		},
		{
			name:     "rust",
			text:     "   0: std::panicking::begin_panic\n             at /rustc/abc/library/std/src/panicking.rs:616:12\n   1: app::main\n             at ./src/main.rs:4:5",
			dialect:  "rust",
			language: "rust",
			want: []types.StackFrame{
				{File: "/rustc/abc/library/std/src/panicking.rs", Line: 616, Column: 12, Function: "std::panicking::begin_panic"},
				{File: "./src/main.rs", Line: 4, Column: 5, Function: "app::main"},
			},
		},
		{
			name:    "generic skips host:port",
			text:    "db.internal:5432 refused, raised from lib/db.py:12",
			dialect: "generic",
			want: []types.StackFrame{
				{File: "lib/db.py", Line: 12},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := ParseStackTrace(tt.text)
			assert.Equal(t, tt.dialect, tr.Dialect)
			assert.Equal(t, tt.language, tr.Language)
			assert.Equal(t, tt.want, tr.Frames)
		})
	}
}

func TestParseStackTraceNoFrames(t *testing.T) {
	for _, text := range []string{"", "nothing to see", "listening on localhost:8080", "version 1.2.3"} {
		tr := ParseStackTrace(text)
		assert.Empty(t, tr.Frames, text)
		assert.Empty(t, tr.Dialect, text)
	}
}

func TestParseStackTraceCap(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= MaxStackFrames+10; i++ {
		fmt.Fprintf(&b, "  File \"/app/m%d.py\", line %d, in f\n", i, i)
	}
	tr := ParseStackTrace(b.String())
	require.Len(t, tr.Frames, MaxStackFrames)
	assert.Equal(t, "/app/m1.py", tr.Frames[0].File)
	assert.Equal(t, MaxStackFrames, tr.Frames[MaxStackFrames-1].Line)
}

func TestSplitQualified(t *testing.T) {
	tests := []struct {
		in, class, name string
	}{
		{"validateToken", "", "validateToken"},
		{"UserService.getUser", "UserService", "getUser"},
		{"com.example.UserService.getUser", "UserService", "getUser"},
		{"main.(*Server).Handle", "Server", "Handle"},
		{"Parser::parse", "Parser", "parse"},
		{"utils.format", "", "format"},
		{"", "", ""},
	}
	for _, tt := range tests {
		class, name := splitQualified(tt.in)
		assert.Equal(t, tt.class, class, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
}
