package its

import (
	"strings"

	"github.com/CognitoIQ/go-its/dom"
)

// Mode is a text-collection whitespace mode (spec.md §4.4).
type Mode int

const (
	Preserve Mode = iota
	Trim
	Normalize
	NormalizeParagraph
)

// Collect walks node's children in document order and returns their
// concatenated textual serialization under whitespace mode and the
// escaping policy doEscape, per spec.md §4.4. If node is an attribute,
// its value is treated as a single run of text (attributes have no
// children in package dom).
func Collect(node *dom.Node, mode Mode, doEscape bool) string {
	if node.IsAttr() {
		s := node.Data
		if doEscape {
			s = escapeRun(s, true)
		}
		return transform(s, mode, true, true)
	}

	var b strings.Builder
	children := node.Children
	last := len(children) - 1
	for i, c := range children {
		isFirst, isLast := i == 0, i == last
		switch c.Kind {
		case dom.Text, dom.CDATA:
			s := c.Data
			if doEscape {
				s = escapeRun(s, false)
			}
			b.WriteString(transform(s, mode, isFirst, isLast))
		case dom.Element:
			inner := Collect(c, mode, doEscape)
			b.WriteString(transform(serializeElement(c, inner), mode, isFirst, isLast))
		case dom.EntityRef:
			b.WriteString(transform(c.Data, mode, isFirst, isLast))
		case dom.RawText:
			// RawText only ever comes from the merger's middle-ground
			// escape path (package its); its
			// bytes are already in their final, intentionally
			// under-escaped form and are passed through unchanged,
			// never re-escaped.
			b.WriteString(transform(c.Data, mode, isFirst, isLast))
		}
	}
	return b.String()
}

// serializeElement renders c as an open/close tag pair around inner,
// with attribute values taken directly from the DOM.
func serializeElement(c *dom.Node, inner string) string {
	var b strings.Builder
	tag := c.Prefix(c.Name)
	b.WriteByte('<')
	b.WriteString(tag)
	for _, a := range c.Attrs {
		b.WriteByte(' ')
		b.WriteString(c.Prefix(a.Name))
		b.WriteString(`="`)
		b.WriteString(escapeRun(a.Data, true))
		b.WriteByte('"')
	}
	b.WriteByte('>')
	b.WriteString(inner)
	b.WriteString("</")
	b.WriteString(tag)
	b.WriteByte('>')
	return b.String()
}

// escapeRun encodes '&', '<', '>' and, when forAttr, '"'.
func escapeRun(s string, forAttr bool) string {
	special := "&<>"
	if forAttr {
		special = "&<>\""
	}
	if !strings.ContainsAny(s, special) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '&':
			b.WriteString("&amp;")
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '"':
			if forAttr {
				b.WriteString("&quot;")
				continue
			}
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func transform(s string, mode Mode, isFirst, isLast bool) string {
	switch mode {
	case Trim:
		return strings.Trim(s, " \t\n")
	case Normalize:
		return edgeTrim(collapseWhitespace(s, false), isFirst, isLast)
	case NormalizeParagraph:
		return edgeTrim(collapseWhitespace(s, true), isFirst, isLast)
	default: // Preserve
		return s
	}
}

// collapseWhitespace replaces every run of ASCII whitespace with a
// single space, except that a run containing two or more newlines
// collapses to exactly "\n\n" when keepParagraph is set.
func collapseWhitespace(s string, keepParagraph bool) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	i, n := 0, len(s)
	for i < n {
		c := s[i]
		if !isSpace(c) {
			b.WriteByte(c)
			i++
			continue
		}
		j, newlines := i, 0
		for j < n && isSpace(s[j]) {
			if s[j] == '\n' {
				newlines++
			}
			j++
		}
		if keepParagraph && newlines >= 2 {
			b.WriteString("\n\n")
		} else {
			b.WriteByte(' ')
		}
		i = j
	}
	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// edgeTrim strips a leading whitespace token when isFirst and a
// trailing one when isLast, matching NORMALIZE's positional stripping
// rule (spec.md §4.4).
func edgeTrim(s string, isFirst, isLast bool) string {
	if isFirst {
		s = strings.TrimLeft(s, " \n")
	}
	if isLast {
		s = strings.TrimRight(s, " \n")
	}
	return s
}
