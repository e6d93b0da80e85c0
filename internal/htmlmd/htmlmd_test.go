package htmlmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func convertString(t *testing.T, input string) string {
	t.Helper()
	out, err := Convert([]byte(input))
	require.NoError(t, err)
	return string(out)
}

func TestConvert_HeadingAndParagraph_BasicScenario(t *testing.T) {
	out := convertString(t, "<h1>Title</h1><p>Hello <b>world</b></p>")

	require.Equal(t, "# Title\n\nHello **world**\n", out)
}

func TestConvert_AllHeadingLevels_MatchingPrefixDepth(t *testing.T) {
	out := convertString(t, "<h1>a</h1><h2>b</h2><h3>c</h3><h4>d</h4><h5>e</h5><h6>f</h6>")

	require.Equal(t, "# a\n\n## b\n\n### c\n\n#### d\n\n##### e\n\n###### f\n", out)
}

func TestConvert_Link_InlineMarkdownSyntax(t *testing.T) {
	out := convertString(t, `<p>See <a href="https://example.com/docs">the docs</a>.</p>`)

	require.Equal(t, "See [the docs](https://example.com/docs).\n", out)
}

func TestConvert_BoldAndItalicSpans_Delimiters(t *testing.T) {
	out := convertString(t, "<p><strong>Bold</strong> and <em>italic</em> and <b>b</b> and <i>i</i></p>")

	require.Equal(t, "**Bold** and *italic* and **b** and *i*\n", out)
}

func TestConvert_UnorderedList_DashPrefixes(t *testing.T) {
	out := convertString(t, "<ul><li>one</li><li>two</li></ul>")

	require.Equal(t, "- one\n- two\n", out)
}

func TestConvert_OrderedList_NumberedPrefixes(t *testing.T) {
	out := convertString(t, "<ol><li>first</li><li>second</li><li>third</li></ol>")

	require.Equal(t, "1. first\n2. second\n3. third\n", out)
}

func TestConvert_NestedList_IndentedByDepth(t *testing.T) {
	out := convertString(t, "<ul><li>outer<ul><li>inner</li></ul></li><li>next</li></ul>")

	require.Equal(t, "- outer\n  - inner\n- next\n", out)
}

func TestConvert_CodeBlock_FencedWithLanguageHint(t *testing.T) {
	out := convertString(t, `<pre><code class="language-go">fmt.Println("hi")
</code></pre>`)

	require.Equal(t, "```go\nfmt.Println(\"hi\")\n```\n", out)
}

func TestConvert_SphinxHighlightBlock_LanguageFromContainerClass(t *testing.T) {
	out := convertString(t, `<div class="highlight-python"><pre>print(1)</pre></div>`)

	require.Equal(t, "```python\nprint(1)\n```\n", out)
}

func TestConvert_InlineCode_BacktickSpan(t *testing.T) {
	out := convertString(t, "<p>Run <code>go test</code> locally.</p>")

	require.Equal(t, "Run `go test` locally.\n", out)
}

func TestConvert_ChromeElements_Dropped(t *testing.T) {
	input := `<script>alert('x');</script>` +
		`<style>body { color: red; }</style>` +
		`<nav>Navigation</nav>` +
		`<footer>Footer</footer>` +
		`<div class="sphinxsidebar">Sidebar</div>` +
		`<div class="related">Related</div>` +
		`<p>This should remain</p>`

	out := convertString(t, input)

	require.NotContains(t, out, "alert")
	require.NotContains(t, out, "color: red")
	require.NotContains(t, out, "Navigation")
	require.NotContains(t, out, "Footer")
	require.NotContains(t, out, "Sidebar")
	require.NotContains(t, out, "Related")
	require.Contains(t, out, "This should remain")
}

func TestConvert_HeadingAnchor_PilcrowStripped(t *testing.T) {
	out := convertString(t, `<h2>Install<a class="headerlink" href="#install">¶</a></h2>`)

	require.Equal(t, "## Install\n", out)
}

func TestConvert_UnknownElements_DegradeToPlainText(t *testing.T) {
	out := convertString(t, "<section><article><span>visible text</span></article></section>")

	require.Contains(t, out, "visible text")
	require.NotContains(t, out, "<")
}

func TestConvert_Entities_Decoded(t *testing.T) {
	out := convertString(t, "<p>a &amp; b &lt; c</p>")

	require.Equal(t, "a & b < c\n", out)
}

func TestConvert_Deterministic_SameInputSameOutput(t *testing.T) {
	input := `<h1>Doc</h1><p>Text with <a href="/x">link</a></p><ul><li>a</li><li>b</li></ul>`

	first := convertString(t, input)
	second := convertString(t, input)

	require.Equal(t, first, second)
}

func TestConvert_VisibleText_NotLost(t *testing.T) {
	input := `<h1>Title</h1><p>Alpha <b>beta</b> <i>gamma</i> <code>delta</code></p>` +
		`<ul><li>epsilon</li></ul><pre><code>zeta</code></pre>` +
		`<p><a href="/z">eta</a></p>`

	out := convertString(t, input)

	for _, word := range []string{"Title", "Alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta"} {
		require.Contains(t, out, word, "visible text %q must survive conversion", word)
	}
}

func TestConvert_EmptyInput_EmptyOutput(t *testing.T) {
	out, err := Convert(nil)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestConvert_WhitespaceRuns_CollapsedInProse(t *testing.T) {
	out := convertString(t, "<p>spaced   \n   out</p>")

	require.Equal(t, "spaced out\n", out)
}

func TestConvert_TrailingNewline_ExactlyOne(t *testing.T) {
	out := convertString(t, "<p>x</p>")

	require.True(t, strings.HasSuffix(out, "\n"))
	require.False(t, strings.HasSuffix(out, "\n\n"))
}
