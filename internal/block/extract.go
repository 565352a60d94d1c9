package block

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Extracted is a block found in a note, with the parse error if it is invalid.
type Extracted struct {
	Block
	Err error
}

// Extract returns every local-soundboard block in a Markdown document, in document order.
func Extract(source []byte) []Extracted {
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []Extracted
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		if strings.TrimSpace(string(fenced.Language(source))) != Language {
			return ast.WalkSkipChildren, nil
		}

		var body strings.Builder
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			body.Write(seg.Value(source))
		}

		b, err := Parse(body.String())
		b.Line = fenceLine(source, fenced)
		blocks = append(blocks, Extracted{Block: b, Err: err})
		return ast.WalkSkipChildren, nil
	})

	return blocks
}

// fenceLine returns the 1-based line of the opening fence.
func fenceLine(source []byte, fenced *ast.FencedCodeBlock) int {
	if fenced.Info == nil {
		return 0
	}
	return bytes.Count(source[:fenced.Info.Segment.Start], []byte("\n")) + 1
}
