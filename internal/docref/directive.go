// Package docref resolves cross-reference directives embedded in markdown
// source documents. A directive references another document and carries a
// content hash, the model that generated its summary, and the summary text:
//
//	::: docref guides/install
//	hash: 3f5a…
//	model: gemini-2.5-flash
//
//	One-paragraph summary of the installation guide.
//	:::
//
// The stored hash makes resolution incremental: while the referenced document
// is unchanged, the stored summary (including manual edits) is reused and no
// generation call is made.
package docref

import (
	"fmt"
	"regexp"
	"strings"
)

// Directive is one parsed docref block.
type Directive struct {
	Target  string // required positional argument: target document identifier
	Hash    string // stored content hash, empty when unresolved
	Model   string // model that produced the stored summary
	Summary string // summary body, free-form and user-editable

	// Byte span of the whole block (including fences) in the source document.
	Start int
	End   int
}

var openFence = regexp.MustCompile(`^:::\s*docref\s+(\S+)\s*$`)

const closeFence = ":::"

// ParseDirectives scans markdown source for docref blocks.
//
// An opening fence without a closing fence is a parse error; everything else
// in the document is passed over untouched.
func ParseDirectives(source []byte) ([]Directive, error) {
	var directives []Directive

	text := string(source)
	offset := 0
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		next := len(text)
		if lineEnd >= 0 {
			line = text[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		} else {
			line = text[offset:]
		}

		m := openFence.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil {
			offset = next
			continue
		}

		d, end, err := parseBlock(text, offset, next, m[1])
		if err != nil {
			return nil, err
		}
		directives = append(directives, d)
		offset = end
	}

	return directives, nil
}

// parseBlock parses one directive starting at blockStart; bodyStart is the
// offset just past the opening fence line.
func parseBlock(text string, blockStart, bodyStart int, target string) (Directive, int, error) {
	d := Directive{Target: target, Start: blockStart}

	var bodyLines []string
	inFields := true

	offset := bodyStart
	for offset < len(text) {
		lineEnd := strings.IndexByte(text[offset:], '\n')
		var line string
		next := len(text)
		if lineEnd >= 0 {
			line = text[offset : offset+lineEnd]
			next = offset + lineEnd + 1
		} else {
			line = text[offset:]
		}
		trimmed := strings.TrimRight(line, "\r")

		if strings.TrimSpace(trimmed) == closeFence {
			d.End = next
			d.Summary = strings.TrimSpace(strings.Join(bodyLines, "\n"))
			return d, next, nil
		}

		if inFields {
			switch {
			case strings.HasPrefix(trimmed, "hash:"):
				d.Hash = strings.TrimSpace(strings.TrimPrefix(trimmed, "hash:"))
				offset = next
				continue
			case strings.HasPrefix(trimmed, "model:"):
				d.Model = strings.TrimSpace(strings.TrimPrefix(trimmed, "model:"))
				offset = next
				continue
			default:
				inFields = false
			}
		}
		bodyLines = append(bodyLines, trimmed)
		offset = next
	}

	return Directive{}, 0, fmt.Errorf("docref block for %q has no closing fence", target)
}

// Serialize renders the directive back to its canonical source form.
// Parse and Serialize round-trip for canonical blocks, which keeps fresh
// directives byte-stable across builds.
func (d Directive) Serialize() string {
	var sb strings.Builder
	sb.WriteString("::: docref ")
	sb.WriteString(d.Target)
	sb.WriteString("\n")
	if d.Hash != "" {
		sb.WriteString("hash: ")
		sb.WriteString(d.Hash)
		sb.WriteString("\n")
	}
	if d.Model != "" {
		sb.WriteString("model: ")
		sb.WriteString(d.Model)
		sb.WriteString("\n")
	}
	if d.Summary != "" {
		sb.WriteString("\n")
		sb.WriteString(d.Summary)
		sb.WriteString("\n")
	}
	sb.WriteString(":::\n")
	return sb.String()
}

// State classifies a directive against the current hash of its target.
type State int

const (
	StateUnresolved State = iota // no stored hash
	StateStale                   // stored hash differs from current
	StateFresh                   // stored hash matches, stored summary reused
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateStale:
		return "stale"
	default:
		return "fresh"
	}
}

// StateFor returns the directive's resolution state given the freshly
// computed hash of the target document.
func (d Directive) StateFor(currentHash string) State {
	switch d.Hash {
	case "":
		return StateUnresolved
	case currentHash:
		return StateFresh
	default:
		return StateStale
	}
}

// Patch applies resolved directives to the source, returning the new source
// text. It is a pure function from (old source, resolutions) to new source;
// directives whose text is unchanged leave their bytes untouched.
func Patch(source []byte, resolved []Directive) []byte {
	if len(resolved) == 0 {
		return source
	}

	var sb strings.Builder
	text := string(source)
	cursor := 0
	for _, d := range resolved {
		if d.Start < cursor || d.End > len(text) {
			continue // overlapping or out-of-range span, keep original bytes
		}
		sb.WriteString(text[cursor:d.Start])
		sb.WriteString(d.Serialize())
		cursor = d.End
	}
	sb.WriteString(text[cursor:])
	return []byte(sb.String())
}
