// Package markdown provides analysis helpers over markdown source documents.
//
// These are read-only APIs built on the Goldmark AST; they never re-render
// markdown.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ExtractTitle returns the text of the first heading in the document, or ""
// if the document has no heading.
func ExtractTitle(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	title := ""
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if _, ok := n.(*gmast.Heading); ok {
			title = strings.TrimSpace(nodeText(n, body))
			return gmast.WalkStop, nil
		}
		return gmast.WalkContinue, nil
	})
	return title
}

// ExtractText returns the plain text content of the document, one block per
// line. Used to build generation prompts.
func ExtractText(body []byte) string {
	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(body))

	var blocks []string
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		if txt := strings.TrimSpace(nodeText(n, body)); txt != "" {
			blocks = append(blocks, txt)
		}
	}
	return strings.Join(blocks, "\n")
}

func nodeText(n gmast.Node, body []byte) string {
	var sb strings.Builder
	_ = gmast.Walk(n, func(node gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		if textNode, ok := node.(*gmast.Text); ok {
			sb.Write(textNode.Segment.Value(body))
			if textNode.SoftLineBreak() || textNode.HardLineBreak() {
				sb.WriteString(" ")
			}
		}
		return gmast.WalkContinue, nil
	})
	return sb.String()
}
