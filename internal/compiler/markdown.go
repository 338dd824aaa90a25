package compiler

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractYAML concatenates the bodies of the ```yaml fenced blocks of a
// Markdown document, in document order. Other blocks and prose are ignored.
func ExtractYAML(src []byte) []byte {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		block, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if lang := string(block.Language(src)); lang != "yaml" && lang != "yml" {
			return ast.WalkSkipChildren, nil
		}

		lines := block.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			out.Write(seg.Value(src))
		}
		if out.Len() > 0 && out.Bytes()[out.Len()-1] != '\n' {
			out.WriteByte('\n')
		}
		return ast.WalkSkipChildren, nil
	})
	return out.Bytes()
}
