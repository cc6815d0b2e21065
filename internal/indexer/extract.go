package indexer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// SupportedExtensions lists the source file types in lookup priority order.
var SupportedExtensions = []string{".pdf", ".md", ".txt"}

// ErrUnsupportedFormat is returned for file types the extractor cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// TextExtractor turns a source document into plain chunkable text.
type TextExtractor struct {
	markdown goldmark.Markdown
}

// NewTextExtractor creates an extractor for pdf, markdown and plain text files.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Extract reads path and returns its plain text. Paragraphs and pages are
// separated by blank lines.
func (e *TextExtractor) Extract(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	case ".md", ".markdown":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read markdown file: %w", err)
		}
		return e.MarkdownText(content), nil
	case ".txt":
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read text file: %w", err)
		}
		return strings.TrimSpace(string(content)), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// extractPDF concatenates the text of every non-empty page.
func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}
	return strings.Join(pages, "\n\n"), nil
}

// MarkdownText renders markdown to plain text. Headings, paragraphs, list
// items and table rows each become their own block; table cells are joined
// with " | ".
func (e *TextExtractor) MarkdownText(content []byte) string {
	if len(content) == 0 {
		return ""
	}

	doc := e.markdown.Parser().Parse(text.NewReader(content))

	var blocks []string
	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			blocks = append(blocks, s)
		}
		current.Reset()
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock, *ast.ListItem:
			flush()
			return ast.WalkContinue, nil
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			if !entering {
				return ast.WalkContinue, nil
			}
			flush()
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				line := lines.At(i)
				current.Write(line.Value(content))
			}
			flush()
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			if !entering {
				return ast.WalkContinue, nil
			}
			current.Write(node.Segment.Value(content))
			if node.SoftLineBreak() || node.HardLineBreak() {
				current.WriteByte(' ')
			}
			return ast.WalkContinue, nil
		case *ast.String:
			if entering {
				current.Write(node.Value)
			}
			return ast.WalkContinue, nil
		}

		if !entering {
			return ast.WalkContinue, nil
		}
		kind := n.Kind().String()
		if kind == "TableRow" || kind == "TableHeader" {
			flush()
			current.WriteString(tableRowText(n, content))
			flush()
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	return strings.Join(blocks, "\n\n")
}

// tableRowText joins the cells of a table row with pipe separators.
func tableRowText(row ast.Node, content []byte) string {
	var cells []string
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		cells = append(cells, nodeText(cell, content))
	}
	return strings.Join(cells, " | ")
}

// nodeText extracts the trimmed text content of n and its children.
func nodeText(n ast.Node, content []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := node.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// FindSourceFile returns the first existing <dir>/<id><ext> for the
// supported extensions, or "" when none exists.
func FindSourceFile(dir, id string) string {
	for _, ext := range SupportedExtensions {
		path := filepath.Join(dir, id+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}
