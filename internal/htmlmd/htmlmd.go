// Package htmlmd converts rendered HTML pages into markdown.
//
// The conversion is a fixed mapping over a closed set of element kinds; any
// element outside the set degrades to its plain text content so no visible
// text is lost. Site chrome (scripts, styles, navigation, footers, sidebars)
// is dropped entirely.
package htmlmd

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// nodeKind classifies the element tags the converter knows how to render.
type nodeKind int

const (
	kindSkip nodeKind = iota // dropped with all content
	kindHeading
	kindParagraph
	kindLink
	kindBold
	kindItalic
	kindCodeBlock
	kindInlineCode
	kindOrderedList
	kindUnorderedList
	kindListItem
	kindLineBreak
	kindOther // transparent container: children rendered, no markup emitted
)

// kindFor is the dispatch table over supported tags. Tags not present map to kindOther.
var kindFor = map[string]nodeKind{
	"script":   kindSkip,
	"style":    kindSkip,
	"nav":      kindSkip,
	"footer":   kindSkip,
	"header":   kindSkip,
	"aside":    kindSkip,
	"head":     kindSkip,
	"template": kindSkip,

	"h1": kindHeading,
	"h2": kindHeading,
	"h3": kindHeading,
	"h4": kindHeading,
	"h5": kindHeading,
	"h6": kindHeading,

	"p":      kindParagraph,
	"a":      kindLink,
	"strong": kindBold,
	"b":      kindBold,
	"em":     kindItalic,
	"i":      kindItalic,
	"pre":    kindCodeBlock,
	"code":   kindInlineCode,
	"ol":     kindOrderedList,
	"ul":     kindUnorderedList,
	"li":     kindListItem,
	"br":     kindLineBreak,
}

// Sphinx-style chrome containers identified by class rather than tag.
var chromeClasses = []string{"related", "sphinxsidebar", "headerlink"}

var excessBlankLines = regexp.MustCompile(`\n[ \t]*\n[ \t\n]*\n`)

// Convert parses HTML content and renders it as markdown.
//
// Output is deterministic: converting the same input twice yields identical
// bytes. The result always ends with a single trailing newline.
func Convert(content []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var r renderer
	r.renderBlock(doc, 0)

	out := r.sb.String()
	out = strings.ReplaceAll(out, "¶", "") // pilcrow heading anchors
	out = excessBlankLines.ReplaceAllString(out, "\n\n")
	out = strings.TrimSpace(out)
	if out == "" {
		return []byte{}, nil
	}
	return []byte(norm.NFC.String(out + "\n")), nil
}

type renderer struct {
	sb strings.Builder
}

func kindOf(n *html.Node) nodeKind {
	if n.Type != html.ElementNode {
		return kindOther
	}
	if isChrome(n) {
		return kindSkip
	}
	if k, ok := kindFor[n.Data]; ok {
		return k
	}
	return kindOther
}

// renderBlock renders a node in block context at the given list depth.
func (r *renderer) renderBlock(n *html.Node, depth int) {
	switch n.Type {
	case html.TextNode:
		if text := strings.TrimSpace(collapseSpace(n.Data)); text != "" {
			r.sb.WriteString(text)
			r.sb.WriteString("\n\n")
		}
		return
	case html.DocumentNode:
		r.renderChildren(n, depth)
		return
	case html.ElementNode:
		// handled below
	default:
		return
	}

	switch kindOf(n) {
	case kindSkip:
		return
	case kindHeading:
		level := int(n.Data[1] - '0')
		text := strings.TrimSpace(r.renderInlineChildren(n))
		if text != "" {
			r.sb.WriteString(strings.Repeat("#", level))
			r.sb.WriteString(" ")
			r.sb.WriteString(text)
			r.sb.WriteString("\n\n")
		}
	case kindParagraph:
		text := strings.TrimSpace(r.renderInlineChildren(n))
		if text != "" {
			r.sb.WriteString(text)
			r.sb.WriteString("\n\n")
		}
	case kindCodeBlock:
		r.sb.WriteString("```")
		if lang := codeLanguage(n); lang != "" {
			r.sb.WriteString(lang)
		}
		r.sb.WriteString("\n")
		code := rawText(n)
		r.sb.WriteString(strings.TrimRight(code, "\n"))
		r.sb.WriteString("\n```\n\n")
	case kindOrderedList:
		r.renderList(n, depth, true)
	case kindUnorderedList:
		r.renderList(n, depth, false)
	case kindLink, kindBold, kindItalic, kindInlineCode, kindLineBreak:
		// Inline element appearing in block context: render as its own text block.
		text := strings.TrimSpace(r.renderInline(n))
		if text != "" {
			r.sb.WriteString(text)
			r.sb.WriteString("\n\n")
		}
	default: // kindOther: transparent container
		r.renderChildren(n, depth)
	}
}

func (r *renderer) renderChildren(n *html.Node, depth int) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.renderBlock(c, depth)
	}
}

// renderList emits one line per list item, nesting by two-space indentation.
func (r *renderer) renderList(n *html.Node, depth int, ordered bool) {
	index := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		index++
		r.sb.WriteString(strings.Repeat("  ", depth))
		if ordered {
			fmt.Fprintf(&r.sb, "%d. ", index)
		} else {
			r.sb.WriteString("- ")
		}
		r.sb.WriteString(strings.TrimSpace(r.renderInlineChildren(c)))
		r.sb.WriteString("\n")

		// Nested lists render beneath their item.
		for g := c.FirstChild; g != nil; g = g.NextSibling {
			if k := kindOf(g); k == kindOrderedList || k == kindUnorderedList {
				r.renderList(g, depth+1, k == kindOrderedList)
			}
		}
	}
	if depth == 0 {
		r.sb.WriteString("\n")
	}
}

// renderInline renders a node in inline context, returning the markdown text.
func (r *renderer) renderInline(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return collapseSpace(n.Data)
	case html.ElementNode:
		// handled below
	default:
		return ""
	}

	switch kindOf(n) {
	case kindSkip, kindOrderedList, kindUnorderedList:
		return "" // nested lists are rendered by renderList, not inline
	case kindLink:
		text := strings.TrimSpace(r.renderInlineChildren(n))
		href := attrValue(n, "href")
		if text == "" {
			return ""
		}
		if href == "" {
			return text
		}
		return fmt.Sprintf("[%s](%s)", text, href)
	case kindBold:
		if text := strings.TrimSpace(r.renderInlineChildren(n)); text != "" {
			return "**" + text + "**"
		}
		return ""
	case kindItalic:
		if text := strings.TrimSpace(r.renderInlineChildren(n)); text != "" {
			return "*" + text + "*"
		}
		return ""
	case kindInlineCode:
		if code := rawText(n); strings.TrimSpace(code) != "" {
			return "`" + strings.TrimSpace(code) + "`"
		}
		return ""
	case kindLineBreak:
		return "\n"
	default:
		return r.renderInlineChildren(n)
	}
}

func (r *renderer) renderInlineChildren(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(r.renderInline(c))
	}
	return sb.String()
}

// rawText returns the concatenated text content without whitespace collapsing
// (used for code where spacing is significant).
func rawText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// codeLanguage extracts a language hint from class attributes like
// "language-go" (CommonMark) or "highlight-python" (Sphinx). The hint may sit
// on the pre element, an enclosing div, or the inner code element.
func codeLanguage(n *html.Node) string {
	if n.Parent != nil && n.Parent.Type == html.ElementNode {
		if lang := classLanguage(n.Parent); lang != "" {
			return lang
		}
	}

	var lang string
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if lang != "" {
			return
		}
		if node.Type == html.ElementNode {
			if found := classLanguage(node); found != "" {
				lang = found
				return
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return lang
}

func classLanguage(n *html.Node) string {
	for _, class := range strings.Fields(attrValue(n, "class")) {
		for _, prefix := range []string{"language-", "highlight-"} {
			if rest := strings.TrimPrefix(class, prefix); rest != class && rest != "" {
				return rest
			}
		}
	}
	return ""
}

func attrValue(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func isChrome(n *html.Node) bool {
	class := attrValue(n, "class")
	if class == "" {
		return false
	}
	for _, marker := range chromeClasses {
		if strings.Contains(class, marker) {
			return true
		}
	}
	return false
}

var spaceRun = regexp.MustCompile(`[ \t\r\n]+`)

// collapseSpace folds whitespace runs into single spaces. Whitespace-only
// input collapses to a single space so word boundaries between adjacent
// inline elements survive.
func collapseSpace(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}
