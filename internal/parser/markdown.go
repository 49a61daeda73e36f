package parser

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/gosimple/slug"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/bookparse/internal/document"
)

// titleScanLines bounds the leading-heading title scan. A level-one
// heading further down is a section, not the document title.
const titleScanLines = 10

// MarkdownParser handles Markdown files using goldmark.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*document.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	title := leadingHeading(src)
	if title == "" {
		title = document.TitleFromFilename(filename)
	}

	return &document.Document{
		Title:   title,
		Author:  document.UnknownAuthor,
		Type:    document.TypeText,
		Content: string(src),
		TOC:     headingOutline(src),
	}, nil
}

// leadingHeading returns the text of a "# " heading found within the
// first few lines, or empty.
func leadingHeading(src []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for i := 0; i < titleScanLines && scanner.Scan(); i++ {
		line := scanner.Text()
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

// mdHeading is an intermediate node for outline assembly. The final
// TocEntry tree holds values, so parent links have to be stable while
// children are still being appended.
type mdHeading struct {
	entry    document.TocEntry
	level    int
	children []*mdHeading
}

// headingOutline walks the Markdown AST and nests headings by level.
// Anchors are slugified heading text, matching common renderer output.
// Returns nil when the document has no headings.
func headingOutline(src []byte) []document.TocEntry {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	root := &mdHeading{level: 0}
	stack := []*mdHeading{root}

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		heading, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		label := strings.TrimSpace(string(heading.Text(src)))
		if label == "" {
			continue
		}

		node := &mdHeading{
			entry: document.TocEntry{
				Label:  label,
				Anchor: slug.Make(label),
			},
			level: heading.Level,
		}

		// Pop until the top of the stack can parent this level.
		for len(stack) > 1 && stack[len(stack)-1].level >= heading.Level {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1]
		parent.children = append(parent.children, node)
		stack = append(stack, node)
	}

	if len(root.children) == 0 {
		return nil
	}
	return convertHeadings(root.children)
}

func convertHeadings(nodes []*mdHeading) []document.TocEntry {
	entries := make([]document.TocEntry, 0, len(nodes))
	for _, n := range nodes {
		entry := n.entry
		entry.Children = []document.TocEntry{}
		if children := convertHeadings(n.children); len(children) > 0 {
			entry.Children = children
		}
		entries = append(entries, entry)
	}
	return entries
}
