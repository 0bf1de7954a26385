package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const maxSnippetLength = 160

// RenderedMarkdown is the result of rendering a markdown document.
type RenderedMarkdown struct {
	// Title is the text of a leading "# " heading, if any.
	Title string
	// Snippet is the first paragraph, truncated for use as a page description.
	Snippet     string
	HTMLContent []byte
}

// relativeLinkTransformer points relative links at posts of the site and
// relative images at the site root.
type relativeLinkTransformer struct {
	baseURL string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			dest := string(v.Destination)
			if isRelativeLink(dest) {
				v.Destination = []byte(t.baseURL + "/" + strings.TrimLeft(path.Clean("/"+dest), "/"))
			}
		case *ast.Link:
			dest := string(v.Destination)
			if isRelativeLink(dest) && !strings.HasPrefix(dest, "#") {
				slug := path.Base(dest)
				slug = strings.TrimSuffix(slug, ".md")
				slug = strings.TrimSuffix(slug, ".html")
				v.Destination = []byte(t.baseURL + "/post/" + slug)
			}
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" {
		return false
	}

	if strings.HasPrefix(dest, "/") {
		return !strings.HasPrefix(dest, "//")
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	return !strings.Contains(dest, ":")
}

// MarkdownRenderer defines the interface for converting markdown to HTML.
type MarkdownRenderer interface {
	Render(markdown []byte) (*RenderedMarkdown, error)
}

type MarkdownRendererImpl struct {
	renderer goldmark.Markdown
}

// NewMarkdownRenderer creates a GFM renderer resolving relative links against baseURL.
// An empty baseURL keeps links site-relative.
func NewMarkdownRenderer(baseURL string) MarkdownRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Typographer,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{baseURL: strings.TrimRight(baseURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)

	return &MarkdownRendererImpl{
		renderer: renderer,
	}
}

func (r *MarkdownRendererImpl) Render(markdown []byte) (*RenderedMarkdown, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert(markdown, &buf); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &RenderedMarkdown{
		Title:       extractTitle(markdown),
		Snippet:     extractSnippet(markdown),
		HTMLContent: buf.Bytes(),
	}, nil
}

func extractTitle(markdown []byte) string {
	firstLine, _, _ := strings.Cut(string(markdown), "\n")
	title, found := strings.CutPrefix(strings.TrimSpace(firstLine), "# ")
	if !found {
		return ""
	}
	return strings.TrimSpace(title)
}

// extractSnippet returns the first paragraph of plain text, skipping headings,
// code fences, rules, lists and tables.
func extractSnippet(markdown []byte) string {
	var paragraph []string

	for _, line := range strings.Split(string(markdown), "\n") {
		trimmed := strings.TrimSpace(line)

		if trimmed == "" || isBlockMarker(trimmed) {
			if len(paragraph) > 0 {
				break
			}
			continue
		}

		paragraph = append(paragraph, trimmed)
	}

	snippet := strings.Join(paragraph, " ")
	if len([]rune(snippet)) <= maxSnippetLength {
		return snippet
	}

	cut := string([]rune(snippet)[:maxSnippetLength])
	if lastSpace := strings.LastIndexAny(cut, " \t"); lastSpace > 0 {
		cut = cut[:lastSpace]
	}
	return cut + "..."
}

func isBlockMarker(line string) bool {
	for _, prefix := range []string{"#", "```", "---", "***", "- ", "* ", "+ ", "|", ">"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
