package parser

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/types"
)

// MaxStackFrames caps the frames kept from one trace.
const MaxStackFrames = 50

// dialect is one stack-frame grammar. build turns a match into a frame; prev
// is the preceding line, which Go and Rust use for the function name.
type dialect struct {
	name     string
	language string
	re       *regexp.Regexp
	build    func(m []string, prev string) types.StackFrame
}

var (
	goFuncLineRe   = regexp.MustCompile(`^\s*((?:[\w.\-/]+/)?[\w.\-]+(?:\.\(\*?\w+\))?\.[\w.]+)\(.*\)\s*$`)
	rustFuncLineRe = regexp.MustCompile(`^\s*\d+:\s+(\S+)`)
)

// dialects is evaluated top to bottom per line; the first match wins and
// the others are not consulted for that line.
var dialects = []dialect{
	{
		name:     "node",
		language: "javascript",
		// at fn (file:line:col)
		re: regexp.MustCompile(`^\s*at\s+(?:async\s+)?(.+?)\s+\((.+?):(\d+):(\d+)\)\s*$`),
		build: func(m []string, _ string) types.StackFrame {
			return types.StackFrame{File: m[2], Line: atoi(m[3]), Column: atoi(m[4]), Function: m[1]}
		},
	},
	{
		name:     "python",
		language: "python",
		// File "path", line N, in fn
		re: regexp.MustCompile(`^\s*File\s+"([^"]+)",\s+line\s+(\d+)(?:,\s+in\s+(\S+))?`),
		build: func(m []string, _ string) types.StackFrame {
			return types.StackFrame{File: m[1], Line: atoi(m[2]), Function: m[3]}
		},
	},
	{
		name:     "java",
		language: "java",
		// at pkg.Class.method(File.java:N)
		re: regexp.MustCompile(`^\s*at\s+([\w$.<>]+)\.([\w$<>]+)\(([\w$]+\.(?:java|kt|scala|groovy)):(\d+)\)`),
		build: func(m []string, _ string) types.StackFrame {
			return types.StackFrame{File: m[3], Line: atoi(m[4]), Function: m[1] + "." + m[2]}
		},
	},
	{
		name:     "go",
		language: "go",
		// /path/file.go:N +0x1d
		re: regexp.MustCompile(`^\s*(\S+\.go):(\d+)(?:\s+\+0x[0-9a-fA-F]+)?\s*$`),
		build: func(m []string, prev string) types.StackFrame {
			f := types.StackFrame{File: m[1], Line: atoi(m[2])}
			if fm := goFuncLineRe.FindStringSubmatch(prev); fm != nil {
				f.Function = fm[1]
			}
			return f
		},
	},
	{
		name:     "rust",
		language: "rust",
		// at ./src/main.rs:10:5
		re: regexp.MustCompile(`^\s*at\s+(\S+?):(\d+):(\d+)\s*$`),
		build: func(m []string, prev string) types.StackFrame {
			f := types.StackFrame{File: m[1], Line: atoi(m[2]), Column: atoi(m[3])}
			if fm := rustFuncLineRe.FindStringSubmatch(prev); fm != nil {
				f.Function = fm[1]
			}
			return f
		},
	},
	{
		name: "generic",
		// path.ext:line[:col] anywhere in the line
		re: regexp.MustCompile(`((?:[A-Za-z]:)?[\w@.\-/\\]*[\w\-]\.[A-Za-z]\w*):(\d+)(?::(\d+))?`),
		build: func(m []string, _ string) types.StackFrame {
			return types.StackFrame{File: m[1], Line: atoi(m[2]), Column: atoi(m[3])}
		},
	},
}

// Trace is a parsed stack trace.
type Trace struct {
	Frames []types.StackFrame
	// Dialect names the grammar of the first frame.
	Dialect  string
	Language string
}

// ParseStackTrace scans text line by line and collects up to MaxStackFrames
// frames.
func ParseStackTrace(text string) Trace {
	var tr Trace
	prev := ""
	for _, line := range strings.Split(text, "\n") {
		if len(tr.Frames) >= MaxStackFrames {
			break
		}
		if f, d, ok := matchFrame(line, prev); ok {
			if tr.Dialect == "" {
				tr.Dialect, tr.Language = d.name, d.language
			}
			tr.Frames = append(tr.Frames, f)
		}
		prev = line
	}
	return tr
}

func matchFrame(line, prev string) (types.StackFrame, *dialect, bool) {
	for i := range dialects {
		d := &dialects[i]
		if d.name != "generic" {
			m := d.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			f := d.build(m, prev)
			if f.File == "" || f.Line < 1 {
				return types.StackFrame{}, nil, false
			}
			return f, d, true
		}
		// host:port and version strings also look like file:line, so the
		// generic grammar keeps the first match with a source extension.
		for _, m := range d.re.FindAllStringSubmatch(line, -1) {
			f := d.build(m, prev)
			if f.Line >= 1 && lexicon.IsFilePath(strings.TrimLeft(f.File, "/\\")) {
				return f, d, true
			}
		}
	}
	return types.StackFrame{}, nil, false
}

var extLanguages = map[string]string{
	".go": "go", ".py": "python", ".rs": "rust", ".java": "java", ".kt": "kotlin",
	".scala": "scala", ".js": "javascript", ".mjs": "javascript", ".cjs": "javascript",
	".jsx": "javascript", ".ts": "typescript", ".tsx": "typescript", ".rb": "ruby",
	".php": "php", ".cs": "csharp", ".swift": "swift", ".c": "c", ".h": "c",
	".cc": "cpp", ".cpp": "cpp", ".hpp": "cpp",
}

// languageOf guesses a language from a file extension.
func languageOf(file string) string {
	return extLanguages[strings.ToLower(path.Ext(file))]
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
