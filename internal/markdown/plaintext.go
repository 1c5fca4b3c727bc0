package markdown

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
)

// PlainText renders markdown as chat-friendly plain text: markup is dropped,
// list items get bullets and links keep their target.
func (p *Parser) PlainText(source []byte) string {
	doc, _ := p.Parse(source)

	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			if !entering {
				endBlock(&buf, n)
			}
		case *ast.List:
			if !entering && (n.Parent() == nil || n.Parent().Kind() != ast.KindListItem) {
				buf.WriteByte('\n')
			}
		case *ast.ListItem:
			if entering {
				buf.WriteString(bullet(node))
			}
		case *ast.Text:
			if entering {
				buf.Write(node.Segment.Value(source))
				if node.SoftLineBreak() || node.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.String:
			if entering {
				buf.Write(node.Value)
			}
		case *ast.CodeSpan:
			if entering {
				for c := node.FirstChild(); c != nil; c = c.NextSibling() {
					if t, ok := c.(*ast.Text); ok {
						buf.Write(t.Segment.Value(source))
					}
				}
				return ast.WalkSkipChildren, nil
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(source))
				}
				buf.WriteByte('\n')
			}
		case *ast.Link:
			if !entering {
				dest := string(node.Destination)
				if dest != "" {
					buf.WriteString(" (" + dest + ")")
				}
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(node.URL(source))
			}
		case *ast.ThematicBreak:
			if entering {
				buf.WriteString("\n")
			}
		case *extast.TableCell:
			if !entering && n.NextSibling() != nil {
				buf.WriteString(" | ")
			}
		case *extast.TableRow, *extast.TableHeader:
			if !entering {
				buf.WriteByte('\n')
			}
		case *extast.TaskCheckBox:
			if entering {
				if node.IsChecked {
					buf.WriteString("[x] ")
				} else {
					buf.WriteString("[ ] ")
				}
			}
		}
		return ast.WalkContinue, nil
	})

	return collapseBlankLines(buf.String())
}

func endBlock(buf *bytes.Buffer, n ast.Node) {
	if n.Parent() != nil && n.Parent().Kind() == ast.KindListItem {
		buf.WriteByte('\n')
		return
	}
	buf.WriteString("\n\n")
}

func bullet(item *ast.ListItem) string {
	list, ok := item.Parent().(*ast.List)
	if !ok || !list.IsOrdered() {
		return "• "
	}
	index := list.Start
	for c := list.FirstChild(); c != nil && c != ast.Node(item); c = c.NextSibling() {
		index++
	}
	return strconv.Itoa(index) + ". "
}

func collapseBlankLines(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
