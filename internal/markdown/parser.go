package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&frontmatter.Extender{},
		),
	)

	return &Parser{
		md: md,
	}
}

// Parse builds the AST of a document. Frontmatter, if any, is decoded into meta.
func (p *Parser) Parse(source []byte) (doc ast.Node, meta map[string]any) {
	context := parser.NewContext()
	doc = p.md.Parser().Parse(text.NewReader(source), parser.WithContext(context))

	meta = make(map[string]any)
	data := frontmatter.Get(context)
	if data != nil {
		err := data.Decode(&meta)
		if err != nil {
			meta = make(map[string]any)
		}
	}

	return doc, meta
}

func (p *Parser) ExtractFrontmatter(source []byte) map[string]any {
	_, meta := p.Parse(source)
	return meta
}

// SplitFrontmatter returns the frontmatter values and the markdown body that follows them.
func (p *Parser) SplitFrontmatter(source []byte) (meta map[string]any, body []byte) {
	meta = p.ExtractFrontmatter(source)
	return meta, bytes.TrimSpace(stripFrontmatter(source))
}

func stripFrontmatter(source []byte) []byte {
	normalized := bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return normalized
	}
	end := bytes.Index(normalized[4:], []byte("\n---"))
	if end < 0 {
		return normalized
	}
	rest := normalized[4+end+4:]
	return bytes.TrimPrefix(rest, []byte("\n"))
}
