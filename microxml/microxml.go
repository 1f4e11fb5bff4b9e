// Package microxml recognizes and parses the restricted well-formed
// fragment language the ITS merger accepts as inline translator
// markup (spec.md §4.8): no comments, no CDATA, no processing
// instructions, no DOCTYPE, ASCII-only tag names, nesting depth capped
// at 100.
//
// A dedicated state machine is used rather than golang.org/x/net/html
// (present in the example corpus via clems4ever-arbor-encoder): a
// generic HTML5 tokenizer does not enforce this grammar's tag
// allowlists, void-element list, depth cap or narrow numeric-only
// character-reference policy, and its error recovery is far more
// permissive than spec.md §4.8 requires (unknown tags are accepted and
// reparented rather than rejected). Re-validating a general parser's
// output against these rules would cost as much as this parser does.
package microxml

import (
	"encoding/xml"
	"regexp"
	"strconv"
	"strings"

	"github.com/CognitoIQ/go-its/dom"
)

// Mode selects the tag-name allowlist and case sensitivity used to
// validate a fragment.
type Mode int

const (
	// SimpleXML accepts any well-formed ASCII tag name.
	SimpleXML Mode = iota
	// SimpleXHTML restricts tags to a 41-entry, case-sensitive allowlist.
	SimpleXHTML
	// SimpleHTML restricts tags to a 52-entry, case-insensitive
	// allowlist; br and hr are void elements with no end tag.
	SimpleHTML
)

const maxDepth = 100

var xhtmlTags = tagSet(
	"a", "abbr", "acronym", "address", "b", "bdo", "big", "blockquote",
	"br", "cite", "code", "dd", "del", "dfn", "dl", "dt", "em",
	"h1", "h2", "h3", "h4", "h5", "h6", "hr", "i", "ins", "kbd", "li",
	"ol", "p", "pre", "q", "samp", "small", "span", "strong", "sub",
	"sup", "tt", "ul", "var",
)

var htmlTags = tagSet(
	"a", "abbr", "acronym", "address", "b", "bdi", "bdo", "big",
	"blockquote", "br", "cite", "code", "dd", "del", "dfn", "dl", "dt",
	"em", "figcaption", "figure", "h1", "h2", "h3", "h4", "h5", "h6",
	"hr", "i", "ins", "kbd", "li", "mark", "menu", "ol", "p", "pre",
	"q", "rp", "rt", "ruby", "s", "samp", "small", "span", "strong",
	"sub", "sup", "tt", "u", "ul", "var", "wbr",
)

var htmlVoid = tagSet("br", "hr")

func tagSet(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

var (
	decCharRef = regexp.MustCompile(`^&#([0-9]+);`)
	hexCharRef = regexp.MustCompile(`^&#[xX]([0-9A-Fa-f]+);`)
)

// Warnf reports a non-fatal condition found while decoding translator
// markup (currently: a lone UTF-16 surrogate code point replaced with
// U+FFFD, spec.md's surrogate-handling edge case). A nil Warnf
// discards these.
type Warnf func(format string, args ...interface{})

// Validate reports whether s is a well-formed fragment under mode,
// parsing it into a scratch element that is then discarded. The merger
// does not call it; it calls Parse for every unescape-if mode.
func Validate(mode Mode, s string) bool {
	scratch := &dom.Node{Kind: dom.Element}
	return Parse(mode, s, scratch, nil)
}

// Parse attempts to parse s as a fragment under mode. On success it
// appends the resulting nodes as children of parent and returns true.
// On failure parent's children are left untouched by the caller's
// perspective: Parse clears any partial children it added before
// returning false. warn, if non-nil, receives a report for each lone
// surrogate code point decoded from a numeric character reference.
func Parse(mode Mode, s string, parent *dom.Node, warn Warnf) bool {
	before := len(parent.Children)
	p := &microParser{mode: mode, s: s, stack: []*dom.Node{parent}, warn: warn}
	if !p.run() || len(p.stack) != 1 {
		parent.Children = parent.Children[:before]
		return false
	}
	return true
}

type microParser struct {
	mode  Mode
	s     string
	pos   int
	stack []*dom.Node // stack[0] is the caller's parent
	warn  Warnf
}

func (p *microParser) warnf(format string, args ...interface{}) {
	if p.warn != nil {
		p.warn(format, args...)
	}
}

func (p *microParser) top() *dom.Node { return p.stack[len(p.stack)-1] }

func (p *microParser) appendText(s string) {
	if s == "" {
		return
	}
	top := p.top()
	if n := len(top.Children); n > 0 && top.Children[n-1].Kind == dom.Text {
		top.Children[n-1].Data += s
		return
	}
	top.Children = append(top.Children, &dom.Node{Kind: dom.Text, Data: s, Parent: top})
}

// run scans the fragment, alternating TEXT runs with tag parses, per
// the TEXT/TAG_OPEN/END_TAG state machine of spec.md §4.8.
func (p *microParser) run() bool {
	for p.pos < len(p.s) {
		if !p.scanText() {
			return false
		}
		if p.pos >= len(p.s) {
			break
		}
		if !p.parseTag() {
			return false
		}
	}
	return true
}

// scanText consumes a TEXT run up to the next '<', resolving '&'
// character references along the way.
func (p *microParser) scanText() bool {
	var b strings.Builder
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == '<' {
			break
		}
		if c == '&' {
			r, n, ok := p.decodeCharRef(p.s[p.pos:])
			if ok {
				b.WriteRune(r)
				p.pos += n
				continue
			}
			// A literal '&' that doesn't open a recognized numeric
			// character reference is accepted as plain text.
			b.WriteByte('&')
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	p.appendText(b.String())
	return true
}

// decodeCharRef attempts to parse a numeric character reference
// (ENTITY state) at the start of s. Named entities are out of scope
// for this grammar; a bare '&' is never an error, only ever plain text.
//
// A reference that decodes into the UTF-16 surrogate range is given
// the spec.md surrogate-handling treatment instead of being rejected
// outright: a high surrogate immediately followed by a second
// reference decoding to its matching low surrogate is combined into
// one scalar value; any other lone surrogate is replaced with U+FFFD
// and reported through p.warn.
func (p *microParser) decodeCharRef(s string) (r rune, n int, ok bool) {
	v1, n1, numOK := scanNumericRef(s)
	if !numOK {
		return 0, 0, false
	}
	if v1 < 0xD800 || v1 > 0xDFFF {
		if !validScalar(rune(v1)) {
			return 0, 0, false
		}
		return rune(v1), n1, true
	}
	if v1 <= 0xDBFF {
		if v2, n2, ok2 := scanNumericRef(s[n1:]); ok2 && v2 >= 0xDC00 && v2 <= 0xDFFF {
			combined := (v1-0xD800)<<10 + (v2 - 0xDC00) + 0x10000
			return rune(combined), n1 + n2, true
		}
	}
	p.warnf("translator markup: lone surrogate code point U+%04X replaced with U+FFFD", v1)
	return 0xFFFD, n1, true
}

// scanNumericRef parses a decimal or hex numeric character reference
// at the start of s and returns its raw value, without checking
// whether that value is a valid scalar value.
func scanNumericRef(s string) (v int32, n int, ok bool) {
	if m := hexCharRef.FindStringSubmatch(s); m != nil {
		val, err := strconv.ParseInt(m[1], 16, 32)
		if err != nil {
			return 0, 0, false
		}
		return int32(val), len(m[0]), true
	}
	if m := decCharRef.FindStringSubmatch(s); m != nil {
		val, err := strconv.ParseInt(m[1], 10, 32)
		if err != nil {
			return 0, 0, false
		}
		return int32(val), len(m[0]), true
	}
	return 0, 0, false
}

func validScalar(r rune) bool {
	if r < 0 || r >= 0x110000 {
		return false
	}
	return r < 0xD800 || r > 0xDFFF
}

// parseTag handles TAG_OPEN: dispatches to an end tag or a start tag.
func (p *microParser) parseTag() bool {
	if p.pos >= len(p.s) || p.s[p.pos] != '<' {
		return false
	}
	p.pos++
	if p.pos < len(p.s) && p.s[p.pos] == '/' {
		p.pos++
		return p.parseEndTag()
	}
	return p.parseStartTag()
}

func (p *microParser) parseEndTag() bool {
	name, ok := p.parseName()
	if !ok {
		return false
	}
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '>' {
		return false
	}
	p.pos++
	if len(p.stack) <= 1 {
		return false // unmatched closer
	}
	want := p.canonicalName(name)
	top := p.top()
	if top.Name.Local != want {
		return false
	}
	p.stack = p.stack[:len(p.stack)-1]
	return true
}

func (p *microParser) parseStartTag() bool {
	name, ok := p.parseName()
	if !ok || name == "" {
		return false
	}
	canon := p.canonicalName(name)
	if !p.allowedTag(canon) {
		return false
	}
	if len(p.stack) > maxDepth { // stack[0] is the caller's parent, not an open element
		return false
	}

	el := &dom.Node{Kind: dom.Element, Parent: p.top()}
	el.Name.Local = canon

	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			return false
		}
		switch p.s[p.pos] {
		case '/':
			p.pos++
			if p.pos >= len(p.s) || p.s[p.pos] != '>' {
				return false
			}
			p.pos++
			p.top().Children = append(p.top().Children, el)
			return true
		case '>':
			p.pos++
			p.top().Children = append(p.top().Children, el)
			if p.mode == SimpleHTML && htmlVoid[canon] {
				return true
			}
			p.stack = append(p.stack, el)
			return true
		default:
			attr, ok := p.parseAttr()
			if !ok {
				return false
			}
			el.Attrs = append(el.Attrs, &dom.Node{Kind: dom.Attr, Name: attr.name, Data: attr.value, Parent: el})
		}
	}
}

// parseAttr implements ATTR_NAME, EQUALS, ATTR_VALUE and AFTER_ATTR:
// name, '=', a single- or double-quoted value with no entity
// processing inside it.
func (p *microParser) parseAttr() (a struct {
	name  xml.Name
	value string
}, ok bool) {
	start := p.pos
	for p.pos < len(p.s) && isNameChar(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return a, false
	}
	name := p.s[start:p.pos]
	p.skipSpace()
	if p.pos >= len(p.s) || p.s[p.pos] != '=' {
		return a, false
	}
	p.pos++
	p.skipSpace()
	if p.pos >= len(p.s) {
		return a, false
	}
	quote := p.s[p.pos]
	if quote != '"' && quote != '\'' {
		return a, false
	}
	p.pos++
	vstart := p.pos
	for p.pos < len(p.s) && p.s[p.pos] != quote {
		p.pos++
	}
	if p.pos >= len(p.s) {
		return a, false
	}
	value := p.s[vstart:p.pos]
	p.pos++
	a.name = xml.Name{Local: name}
	a.value = value
	return a, true
}

func (p *microParser) parseName() (string, bool) {
	start := p.pos
	for p.pos < len(p.s) && isNameChar(p.s[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		return "", false
	}
	return p.s[start:p.pos], true
}

func (p *microParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' || c == ':'
}

// isASCIITagName reports whether name is a non-empty run of ASCII
// letters, digits, '-' and '_' — the Simple XML mode's only
// requirement (spec.md §4.8: "element tag names are ASCII only").
func isASCIITagName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

func (p *microParser) canonicalName(name string) string {
	if p.mode == SimpleHTML {
		return strings.ToLower(name)
	}
	return name
}

func (p *microParser) allowedTag(canon string) bool {
	switch p.mode {
	case SimpleXML:
		return isASCIITagName(canon)
	case SimpleXHTML:
		return xhtmlTags[canon]
	case SimpleHTML:
		return htmlTags[canon]
	default:
		return false
	}
}
