package parser

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/steveyegge/triage/internal/lexicon"
	"github.com/steveyegge/triage/internal/markdown"
	"github.com/steveyegge/triage/internal/types"
)

// codeHeadings is the try-order of the Code-Analysis parser. Every present
// heading contributes; earlier headings win for fields set by both.
var codeHeadings = []string{
	markdown.SectionCodeAnalysis,
	markdown.HeadingStackTrace,
	markdown.HeadingErrorMessage,
}

// errorPattern extracts an error message and, when the grammar names one,
// an error type.
type errorPattern struct {
	name    string
	re      *regexp.Regexp
	extract func(m []string) (msg, typ string)
}

var errorPatterns = []errorPattern{
	{
		name: "java-thread",
		re:   regexp.MustCompile(`(?m)^[ \t]*Exception in thread "[^"]*"[ \t]+([\w.$]+)(?::[ \t]*(.*))?$`),
		extract: func(m []string) (string, string) {
			return firstNonBlank(m[2], m[1]), simpleName(m[1])
		},
	},
	{
		name: "exception",
		// TypeError: x, java.lang.IllegalStateException: x, ValueError: x
		re: regexp.MustCompile(`(?m)^[ \t]*(?:Uncaught[ \t]+)?((?:[\w$]+\.)*(?:[A-Z][\w$]*)?(?:Error|Exception))(?::[ \t]*(.*))?[ \t]*$`),
		extract: func(m []string) (string, string) {
			return firstNonBlank(m[2], m[1]), simpleName(m[1])
		},
	},
	{
		name: "go-panic",
		re:   regexp.MustCompile(`(?m)^panic:[ \t]*(.+?)(?:[ \t]*\[recovered\])?[ \t]*$`),
		extract: func(m []string) (string, string) {
			return m[1], "panic"
		},
	},
	{
		name: "rust-panic",
		// Older toolchains quote the message inline; newer ones print the
		// location and put the message on the next line.
		re: regexp.MustCompile(`(?m)^thread '[^']*' panicked at ([^\n]+)(?:\n([^\n]*))?`),
		extract: func(m []string) (string, string) {
			at := strings.TrimSpace(m[1])
			if strings.HasPrefix(at, "'") {
				if end := strings.LastIndex(at, "',"); end > 0 {
					return at[1:end], "panic"
				}
			}
			if strings.HasSuffix(at, ":") && strings.TrimSpace(m[2]) != "" {
				return m[2], "panic"
			}
			return at, "panic"
		},
	},
	{
		name: "generic",
		re:   regexp.MustCompile(`(?im)^.*\b(?:error|failed|cannot)\b.*$`),
		extract: func(m []string) (string, string) {
			return m[0], ""
		},
	},
}

var (
	lineRangeRe    = regexp.MustCompile(`(?i)\blines?[ \t]+(\d+)[ \t]*(?:-|–|to|through)[ \t]*(\d+)\b`)
	singleLineRe   = regexp.MustCompile(`(?i)\bline[ \t]+(\d+)\b`)
	codeFieldRe    = regexp.MustCompile(`(?im)^[ \t>*+-]*\**(file|path|function|method|class)\**[ \t]*:[ \t]*(.+)$`)
	markupStripper = strings.NewReplacer("`", "", "**", "")
)

// ExtractError runs the ordered error pattern list over text and returns the
// first match's message and type, trimmed.
func ExtractError(text string) (msg, typ string) {
	for _, p := range errorPatterns {
		if m := p.re.FindStringSubmatch(text); m != nil {
			msg, typ = p.extract(m)
			return strings.TrimSpace(msg), strings.TrimSpace(typ)
		}
	}
	return "", ""
}

// ExtractLineRange finds "lines N-M" or "line N" in prose. Both results are
// nil when neither form is present. Numbers are returned as written, so
// "line 0" yields a non-nil 0 for the validator to reject.
func ExtractLineRange(text string) (start, end *int) {
	if m := lineRangeRe.FindStringSubmatch(text); m != nil {
		return types.Line(atoi(m[1])), types.Line(atoi(m[2]))
	}
	if m := singleLineRe.FindStringSubmatch(text); m != nil {
		n := atoi(m[1])
		return types.Line(n), types.Line(n)
	}
	return nil, nil
}

// ParseCodeAnalysis locates the code an issue points at. It returns nil only
// when the document has no code heading, no code block and no parsable stack
// trace.
func ParseCodeAnalysis(doc *markdown.Document) (*types.CodeAnalysis, error) {
	var b analysisBuilder
	for _, name := range codeHeadings {
		sec, err := markdown.FindHeading(doc, name)
		if err != nil {
			return nil, err
		}
		if sec != nil {
			b.add(sec.Content, sec.CodeBlocks())
		}
	}
	if !b.found {
		if blocks := doc.CodeBlocks(); len(blocks) > 0 {
			b.add("", blocks)
		}
	}
	if !b.found {
		if tr := ParseStackTrace(doc.Text()); len(tr.Frames) > 0 {
			b.add(doc.Text(), nil)
		}
	}
	if !b.found {
		return nil, nil
	}
	return b.build(), nil
}

type analysisBuilder struct {
	found     bool
	ca        types.CodeAnalysis
	trace     Trace
	fenceLang string
	texts     []string
	explicit  struct{ file, function, class string }
}

// add merges one source (section text and/or code blocks) into the result.
// Fields already set by an earlier source are kept.
func (b *analysisBuilder) add(text string, blocks []markdown.CodeBlock) {
	b.found = true
	all := text
	if text == "" {
		parts := make([]string, 0, len(blocks))
		for _, cb := range blocks {
			parts = append(parts, cb.Content)
		}
		all = strings.Join(parts, "\n")
	}
	b.texts = append(b.texts, all)

	if len(b.trace.Frames) == 0 {
		b.trace = ParseStackTrace(all)
	}
	if b.ca.ErrorMessage == "" {
		b.ca.ErrorMessage, b.ca.ErrorType = ExtractError(all)
	}

	prose := lexicon.StripCodeFences(text)
	if b.ca.StartLine == nil {
		b.ca.StartLine, b.ca.EndLine = ExtractLineRange(prose)
	}
	for _, m := range codeFieldRe.FindAllStringSubmatch(prose, -1) {
		value := strings.TrimSpace(markupStripper.Replace(m[2]))
		switch strings.ToLower(m[1]) {
		case "file", "path":
			if b.explicit.file == "" {
				if paths := lexicon.ExtractFilePaths(value, 1); len(paths) > 0 {
					b.explicit.file = paths[0]
				}
			}
		case "function", "method":
			if b.explicit.function == "" {
				b.explicit.function = strings.TrimSuffix(value, "()")
			}
		case "class":
			if b.explicit.class == "" {
				b.explicit.class = value
			}
		}
	}

	if b.ca.Snippet == "" {
		for _, cb := range blocks {
			if cb.Content == "" || len(ParseStackTrace(cb.Content).Frames) > 0 {
				continue
			}
			b.ca.Snippet, b.fenceLang = cb.Content, cb.Language
			break
		}
	}
}

func (b *analysisBuilder) build() *types.CodeAnalysis {
	ca := b.ca
	if len(b.trace.Frames) > 0 {
		ca.StackTrace = b.trace.Frames
	}
	var first *types.StackFrame
	if len(ca.StackTrace) > 0 {
		first = &ca.StackTrace[0]
	}

	switch {
	case b.explicit.file != "":
		ca.FilePath = b.explicit.file
	case first != nil:
		ca.FilePath = first.File
	default:
		if paths := lexicon.ExtractFilePaths(strings.Join(b.texts, "\n"), 1); len(paths) > 0 {
			ca.FilePath = paths[0]
		}
	}

	fn := b.explicit.function
	if fn == "" && first != nil {
		fn = first.Function
	}
	ca.ClassName, ca.FunctionName = splitQualified(fn)
	if b.explicit.class != "" {
		ca.ClassName = b.explicit.class
	}

	if ca.StartLine == nil && first != nil {
		ca.StartLine, ca.EndLine = types.Line(first.Line), types.Line(first.Line)
	}

	ca.Language = languageOf(ca.FilePath)
	if ca.Language == "" {
		ca.Language = strings.ToLower(b.fenceLang)
	}
	if ca.Language == "" {
		ca.Language = b.trace.Language
	}
	return &ca
}

// splitQualified splits "pkg.Class.method", "Class::method" or
// "main.(*Server).Handle" into a class (when the qualifier looks like a type)
// and a function name.
func splitQualified(fn string) (class, name string) {
	fn = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(fn, "async "), "new "))
	if fn == "" {
		return "", ""
	}
	sep := "."
	if strings.Contains(fn, "::") {
		sep = "::"
	}
	i := strings.LastIndex(fn, sep)
	if i <= 0 {
		return "", fn
	}
	name = fn[i+len(sep):]
	qual := fn[:i]
	if j := strings.LastIndex(qual, sep); j >= 0 {
		qual = qual[j+len(sep):]
	}
	qual = strings.Trim(qual, "(*)")
	if qual != "" && unicode.IsUpper([]rune(qual)[0]) {
		class = qual
	}
	return class, name
}

// simpleName strips a package qualifier: java.lang.Foo -> Foo.
func simpleName(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
