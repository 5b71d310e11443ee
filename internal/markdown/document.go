// Package markdown builds a goldmark AST for an issue body and locates the
// sections the parsers read from.
//
// Only top-level headings start sections. A section runs from the end of its
// heading line to the start of the next top-level heading whose level is less
// than or equal to its own, or to the end of the document.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/steveyegge/triage/internal/types"
)

// Document is a parsed issue body.
type Document struct {
	Source   []byte
	Root     ast.Node
	Headings []Heading

	blocks []ast.Node // top-level children of Root, in order
}

// Heading is a top-level heading in a Document.
type Heading struct {
	Level int
	Text  string
	Node  *ast.Heading

	index     int // position in Document.blocks
	start     int // byte offset of the heading line
	bodyStart int // byte offset just past the heading line(s)
}

// CodeBlock is a fenced or indented code block.
type CodeBlock struct {
	Language string
	Content  string
}

var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

var emptyATXRe = regexp.MustCompile(`^ {0,3}#{1,6}[ \t]*#*[ \t]*$`)

// Parse builds the AST for src. goldmark does not report errors, so the only
// failure mode is a panic inside the library, which is converted to an
// AST_ERROR.
func Parse(src []byte) (doc *Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = types.WrapParseError(types.ErrAST, fmt.Errorf("%v", r), "markdown parser panicked")
		}
	}()

	root := md.Parser().Parse(text.NewReader(src))
	if root == nil {
		return nil, types.NewParseError(types.ErrAST, "markdown parser returned no document")
	}

	doc = &Document{Source: src, Root: root}
	prevEnd := 0
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		idx := len(doc.blocks)
		doc.blocks = append(doc.blocks, c)

		h, ok := c.(*ast.Heading)
		if !ok {
			if _, end, ok := blockSpan(c, src); ok {
				prevEnd = end
			}
			continue
		}
		start, bodyStart := headingSpan(h, src, prevEnd)
		prevEnd = bodyStart
		doc.Headings = append(doc.Headings, Heading{
			Level:     h.Level,
			Text:      InlineText(h, src),
			Node:      h,
			index:     idx,
			start:     start,
			bodyStart: bodyStart,
		})
	}
	return doc, nil
}

// Text returns the full source text.
func (d *Document) Text() string {
	return string(d.Source)
}

// CodeBlocks returns every code block in document order, at any depth.
func (d *Document) CodeBlocks() []CodeBlock {
	var blocks []CodeBlock
	_ = ast.Walk(d.Root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch b := n.(type) {
		case *ast.FencedCodeBlock:
			blocks = append(blocks, CodeBlock{
				Language: string(b.Language(d.Source)),
				Content:  linesText(b, d.Source),
			})
			return ast.WalkSkipChildren, nil
		case *ast.CodeBlock:
			blocks = append(blocks, CodeBlock{Content: linesText(b, d.Source)})
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return blocks
}

// Preamble returns the source preceding the first top-level heading for
// which stop reports true, or the whole source when there is none.
func (d *Document) Preamble(stop func(heading string) bool) string {
	for _, h := range d.Headings {
		if stop(h.Text) {
			return string(d.Source[:h.start])
		}
	}
	return string(d.Source)
}

// RawSections maps every heading's text to its section content. When a
// heading text repeats, the first occurrence wins.
func (d *Document) RawSections() map[string]string {
	out := make(map[string]string, len(d.Headings))
	for i := range d.Headings {
		h := d.Headings[i]
		if h.Text == "" {
			continue
		}
		if _, dup := out[h.Text]; dup {
			continue
		}
		out[h.Text] = d.sectionAt(i, h.Text).Text()
	}
	return out
}

// headingSpan returns the offset of the heading's first line and the offset
// just past its last line (including a setext underline).
func headingSpan(h *ast.Heading, src []byte, searchFrom int) (int, int) {
	lines := h.Lines()
	if lines.Len() == 0 {
		// Empty ATX heading ("##"): goldmark records no segment, find the line.
		pos := searchFrom
		for pos < len(src) {
			end := nextLine(src, pos)
			if emptyATXRe.Match(bytes.TrimRight(src[pos:end], "\r\n")) {
				return pos, end
			}
			pos = end
		}
		return len(src), len(src)
	}
	start := lineStart(src, lines.At(0).Start)
	end := lineEnd(src, lines.At(lines.Len()-1).Stop)
	if end < len(src) && isSetextUnderline(src[end:nextLine(src, end)]) {
		end = nextLine(src, end)
	}
	return start, end
}

// blockSpan returns the byte range covered by a block node by looking at the
// first and last descendants that carry line segments.
func blockSpan(n ast.Node, src []byte) (int, int, bool) {
	first, ok := firstSegmentStart(n)
	if !ok {
		return 0, 0, false
	}
	last, _ := lastSegmentStop(n)
	return lineStart(src, first), lineEnd(src, last), true
}

func firstSegmentStart(n ast.Node) (int, bool) {
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(0).Start, true
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if pos, ok := firstSegmentStart(c); ok {
			return pos, true
		}
	}
	return 0, false
}

func lastSegmentStop(n ast.Node) (int, bool) {
	for c := n.LastChild(); c != nil; c = c.PreviousSibling() {
		if c.Type() != ast.TypeBlock {
			continue
		}
		if pos, ok := lastSegmentStop(c); ok {
			return pos, true
		}
	}
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		return n.Lines().At(n.Lines().Len() - 1).Stop, true
	}
	return 0, false
}

func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// lineEnd returns the offset just past the newline ending the line that
// contains pos. A pos that already sits at a line start is returned as is.
func lineEnd(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if pos > 0 && src[pos-1] == '\n' {
		return pos
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

// nextLine returns the offset just past the first newline at or after pos.
func nextLine(src []byte, pos int) int {
	if pos >= len(src) {
		return len(src)
	}
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		return pos + i + 1
	}
	return len(src)
}

func isSetextUnderline(line []byte) bool {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return false
	}
	c := line[0]
	if c != '=' && c != '-' {
		return false
	}
	for _, b := range line {
		if b != c {
			return false
		}
	}
	return true
}

// InlineText flattens the inline content of n into plain text.
func InlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return string(bytes.TrimSpace(buf.Bytes()))
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n"))
}
