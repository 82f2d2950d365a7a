package stages

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownText returns the visible text of a Markdown document: inline
// text, code and link labels, one block per line. Markup, link targets
// and raw HTML are dropped.
func MarkdownText(src []byte) string {
	root := goldmark.New().Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			if n.Type() == gmast.TypeBlock && n.Kind() != gmast.KindDocument {
				b.WriteByte('\n')
			}
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.Text:
			b.Write(node.Segment.Value(src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *gmast.String:
			b.Write(node.Value)
		case *gmast.AutoLink:
			b.Write(node.Label(src))
		case *gmast.FencedCodeBlock, *gmast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
			}
		case *gmast.HTMLBlock, *gmast.RawHTML:
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
