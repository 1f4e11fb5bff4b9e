package dom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
)

// DefaultRecursionLimit bounds how deeply nested a parsed document may
// be, mirroring xmltree.recursionLimit in the teacher library. It can be
// overridden with ParseOption WithRecursionLimit.
const DefaultRecursionLimit = 3000

var errTooDeep = errors.New("dom: xml document too deeply nested")

// generalEntity matches a named (non-numeric) entity reference that
// encoding/xml, run with Strict=false, leaves untranslated in character
// data: &name;. The five predefined entities (amp, lt, gt, apos, quot)
// are always expanded by the decoder before we see them, so anything
// matching this pattern in a CharData token is a genuine general entity
// reference per spec.md's C4 text collector.
var generalEntity = regexp.MustCompile(`&[A-Za-z_][-A-Za-z0-9_.]*;`)

// A ParseOption configures Parse.
type ParseOption func(*parseConfig)

type parseConfig struct {
	maxDepth int
}

// WithRecursionLimit overrides DefaultRecursionLimit.
func WithRecursionLimit(n int) ParseOption {
	return func(c *parseConfig) { c.maxDepth = n }
}

// Parse builds a Node tree from an XML document. doc must contain
// exactly one root element; leading processing instructions, comments
// and the XML declaration are skipped. Parse does not canonicalize or
// transcode; per spec.md's non-goals, only UTF-8 input is supported
// (as golang.org/x/text is not part of this module's dependency
// surface, transcoding is left to callers).
//
// CDATA sections are distinguished from ordinary character data by
// inspecting the raw bytes the decoder consumed for each CharData
// token (the same offset-slicing idiom xmltree.Element.parse uses for
// its Content field), since encoding/xml's tokenizer does not flag
// CDATA separately. A CDATA run immediately adjacent to plain text with
// no intervening markup may be merged by the decoder into one CharData
// token, in which case it is reported as a single Text child rather
// than two children; this does not affect whitespace or escaping
// semantics, since both Kinds are handled identically by the text
// collector.
func Parse(doc []byte, opts ...ParseOption) (*Node, error) {
	cfg := parseConfig{maxDepth: DefaultRecursionLimit}
	for _, o := range opts {
		o(&cfg)
	}

	dec := xml.NewDecoder(bytes.NewReader(doc))
	dec.Strict = false

	s := &scanner{Decoder: dec, doc: doc}
	root := new(Node)
	root.Kind = Element

	for s.scan() {
		if start, ok := s.tok.(xml.StartElement); ok {
			root.Name = start.Name
			root.setAttrsFrom(start)
			root.pushNS(start)
			root.Line, _ = s.InputPos()
			break
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	if err := parseChildren(root, s, 0, cfg.maxDepth); err != nil {
		return nil, err
	}
	return root, nil
}

type scanner struct {
	*xml.Decoder
	doc        []byte
	tok        xml.Token
	err        error
	start, end int64
}

func (s *scanner) scan() bool {
	if s.err != nil {
		return false
	}
	s.start = s.InputOffset()
	s.tok, s.err = s.Token()
	s.end = s.InputOffset()
	return s.err == nil
}

func (s *scanner) raw() []byte {
	if s.start < 0 || s.end > int64(len(s.doc)) || s.start > s.end {
		return nil
	}
	return s.doc[s.start:s.end]
}

// xmlNamespaceURI is the URI encoding/xml substitutes for the predefined
// "xml" prefix; setAttrsFrom maps it back to "xml", the Space value the
// rest of this package (Scope.Prefix, Scope.ResolveNS) uses for it.
const xmlNamespaceURI = "http://www.w3.org/XML/1998/namespace"

func (n *Node) setAttrsFrom(start xml.StartElement) {
	for _, a := range start.Attr {
		if isNSDecl(a.Name) {
			continue
		}
		name := a.Name
		if name.Space == xmlNamespaceURI {
			name.Space = "xml"
		}
		n.Attrs = append(n.Attrs, &Node{
			Kind:   Attr,
			Name:   name,
			Data:   a.Value,
			Parent: n,
		})
	}
}

func parseChildren(el *Node, s *scanner, depth, maxDepth int) error {
	if depth > maxDepth {
		return errTooDeep
	}
	for s.scan() {
		switch tok := s.tok.(type) {
		case xml.StartElement:
			line, _ := s.InputPos()
			child := &Node{
				Kind:   Element,
				Name:   tok.Name,
				Parent: el,
				Scope:  el.Scope,
				Line:   line,
			}
			child.setAttrsFrom(tok)
			child.pushNS(tok)
			el.Children = append(el.Children, child)
			if err := parseChildren(child, s, depth+1, maxDepth); err != nil {
				return err
			}
		case xml.EndElement:
			if tok.Name != el.Name {
				return fmt.Errorf("dom: expecting </%s>, got </%s>",
					el.Prefix(el.Name), el.Prefix(tok.Name))
			}
			return nil
		case xml.CharData:
			appendCharData(el, string(tok), s.raw())
		case xml.Comment:
			el.Children = append(el.Children, &Node{
				Kind:   Comment,
				Data:   string(tok),
				Parent: el,
			})
		}
		// Directives and ProcInsts inside element content are ignored;
		// they carry no translatable text.
	}
	return s.err
}

func appendCharData(el *Node, text string, raw []byte) {
	kind := Text
	if bytes.HasPrefix(raw, []byte("<![CDATA[")) {
		kind = CDATA
	}
	if kind == CDATA || !generalEntity.MatchString(text) {
		el.Children = append(el.Children, &Node{Kind: kind, Data: text, Parent: el})
		return
	}
	// Split plain character data on literal general entity references
	// so each becomes its own EntityRef child, per spec.md C4.
	last := 0
	for _, loc := range generalEntity.FindAllStringIndex(text, -1) {
		if loc[0] > last {
			el.Children = append(el.Children, &Node{Kind: Text, Data: text[last:loc[0]], Parent: el})
		}
		el.Children = append(el.Children, &Node{Kind: EntityRef, Data: text[loc[0]:loc[1]], Parent: el})
		last = loc[1]
	}
	if last < len(text) {
		el.Children = append(el.Children, &Node{Kind: Text, Data: text[last:], Parent: el})
	}
}
