// Package htmltext flattens HTML fragments into plain text while keeping
// line structure: <br> tags and block-level elements produce newlines,
// inline elements do not.
package htmltext

import (
	"strings"

	"golang.org/x/net/html"
)

// inlineNames lists element names rendered without surrounding line breaks.
var inlineNames = map[string]struct{}{
	"span": {}, "em": {}, "strong": {}, "font": {}, "mark": {}, "label": {},
	"sub": {}, "sup": {}, "tt": {}, "bdo": {}, "button": {}, "cite": {},
	"del": {}, "a": {}, "b": {}, "u": {}, "i": {}, "s": {},
}

// Text returns the flattened text of the given node's contents.
func Text(n *html.Node) string {
	var sb strings.Builder
	walk(n, &sb)
	return sb.String()
}

func walk(n *html.Node, sb *strings.Builder) {
	if n.FirstChild == nil {
		// An empty element still separates what surrounds it
		sb.WriteString("\n")
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			sb.WriteString(c.Data)
		case html.ElementNode:
			if c.Data == "br" {
				sb.WriteString("\n")
				continue
			}
			_, inline := inlineNames[c.Data]
			if !inline {
				sb.WriteString("\n")
			}
			walk(c, sb)
			if !inline {
				sb.WriteString("\n")
			}
		}
	}
}

// Lines returns the non-empty trimmed lines of the flattened text.
func Lines(n *html.Node) []string {
	var lines []string
	for _, line := range strings.Split(Text(n), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
