package docref

import (
	"fmt"
	"strings"
)

// Render produces the markdown block a resolved directive contributes to the
// document output: the reference link followed by the summary as a quote.
// title may be empty, in which case the target identifier is used as link text.
func Render(d Directive, title string) string {
	linkText := title
	if linkText == "" {
		linkText = d.Target
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "> **[%s](%s)**\n", linkText, d.Target)
	if d.Summary != "" {
		for _, line := range strings.Split(d.Summary, "\n") {
			sb.WriteString(">")
			if line != "" {
				sb.WriteString(" ")
				sb.WriteString(line)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// TitleLookup resolves a target identifier to a human-readable title.
// Returning "" falls back to the identifier.
type TitleLookup func(target string) string

// RenderDocument replaces every docref block in source with its rendered
// summary block. It is used when emitting the document output; the source
// with directive blocks stays the canonical form.
func RenderDocument(source []byte, titleFor TitleLookup) ([]byte, error) {
	directives, err := ParseDirectives(source)
	if err != nil {
		return nil, err
	}
	if len(directives) == 0 {
		return source, nil
	}

	var sb strings.Builder
	text := string(source)
	cursor := 0
	for _, d := range directives {
		sb.WriteString(text[cursor:d.Start])
		title := ""
		if titleFor != nil {
			title = titleFor(d.Target)
		}
		sb.WriteString(Render(d, title))
		cursor = d.End
	}
	sb.WriteString(text[cursor:])
	return []byte(sb.String()), nil
}
