// Package xpath evaluates the subset of XPath 1.0 used by ITS rule
// selectors (spec.md §4.3): absolute paths built from child ("/") and
// descendant ("//") steps over element and attribute names, with
// simple `[@name='value']` and positional `[n]` predicates.
//
// No complete repository in the example corpus this module was built
// from carries a dedicated XPath dependency, so this evaluator is
// hand-rolled, styled after droyo-go-xml's xsd/search.go predicate
// combinators (and/or/hasChild) and xmltree.Element.SearchFunc's
// depth-first collect-without-descending shape. The supported grammar
// is a closed subset fixed by spec.md, the same justification spec.md
// §9 gives for treating the ITS rule categories as a closed tagged
// union rather than an open, pluggable one.
package xpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CognitoIQ/go-its/dom"
)

// A Resolver resolves a namespace prefix (as captured at a rule's
// source position) to a URI. The empty prefix resolves the default
// namespace, if any.
type Resolver func(prefix string) (uri string, ok bool)

// Expr is a parsed, reusable selector.
type Expr struct {
	steps []step
}

type axis int

const (
	axisChild axis = iota
	axisDescendant
	axisAttr
)

type step struct {
	axis    axis
	space   string // resolved namespace URI, "" if unqualified or wildcard
	local   string // local name, "" or "*" for wildcard
	wantAny bool   // '*' name test
	preds   []predicate
}

type predicate struct {
	attrLocal string // for [@name='value']
	attrValue string
	hasValue  bool
	position  int // 1-based, 0 means "no positional predicate"
}

// Compile parses selector using resolver to turn QName prefixes into
// namespace URIs. Compile is intentionally strict: any construct
// outside the supported subset is a parse error, which callers should
// treat the way spec.md §7 treats rule-file errors (skip the rule,
// warn, continue).
func Compile(selector string, resolver Resolver) (*Expr, error) {
	p := &parser{in: selector, resolver: resolver}
	steps, err := p.parsePath()
	if err != nil {
		return nil, fmt.Errorf("xpath: %q: %w", selector, err)
	}
	return &Expr{steps: steps}, nil
}

// Eval returns every node in doc's tree matching the compiled
// expression. Results are attribute or element Nodes, document order.
func (e *Expr) Eval(root *dom.Node) []*dom.Node {
	current := []*dom.Node{root}
	for i, st := range e.steps {
		var next []*dom.Node
		for _, ctx := range current {
			next = append(next, matchStep(ctx, st, i == 0)...)
		}
		current = next
	}
	return current
}

func matchStep(ctx *dom.Node, st step, isFirst bool) []*dom.Node {
	var candidates []*dom.Node
	switch st.axis {
	case axisAttr:
		for _, a := range ctx.Attrs {
			if nameMatches(a.Name.Space, a.Name.Local, st) {
				candidates = append(candidates, a)
			}
		}
	case axisChild:
		for _, c := range ctx.Children {
			if c.Kind == dom.Element && nameMatches(c.Name.Space, c.Name.Local, st) {
				candidates = append(candidates, c)
			}
		}
	case axisDescendant:
		// Includes ctx itself at depth 0 only when isFirst (an
		// absolute "//name" path may match the document root).
		var walk func(n *dom.Node, self bool)
		walk = func(n *dom.Node, self bool) {
			if self && n.Kind == dom.Element && nameMatches(n.Name.Space, n.Name.Local, st) {
				candidates = append(candidates, n)
			}
			for _, c := range n.Children {
				if c.Kind != dom.Element {
					continue
				}
				if nameMatches(c.Name.Space, c.Name.Local, st) {
					candidates = append(candidates, c)
				}
				walk(c, false)
			}
		}
		walk(ctx, isFirst)
	}
	return applyPredicates(candidates, st.preds)
}

func nameMatches(space, local string, st step) bool {
	if st.wantAny {
		return true
	}
	if st.local != local {
		return false
	}
	// An unprefixed name test's st.space is "", meaning "no
	// namespace" — it must match exactly, not act as a wildcard; see
	// the note in parseStep about XPath 1.0 ignoring default xmlns.
	return st.space == space
}

func applyPredicates(nodes []*dom.Node, preds []predicate) []*dom.Node {
	for _, pred := range preds {
		var kept []*dom.Node
		if pred.position > 0 {
			if pred.position <= len(nodes) {
				kept = []*dom.Node{nodes[pred.position-1]}
			}
		} else {
			for _, n := range nodes {
				if n.Kind != dom.Element {
					continue
				}
				v, ok := n.Attr("", pred.attrLocal)
				if !ok {
					continue
				}
				if pred.hasValue && v != pred.attrValue {
					continue
				}
				kept = append(kept, n)
			}
		}
		nodes = kept
	}
	return nodes
}

type parser struct {
	in       string
	pos      int
	resolver Resolver
}

func (p *parser) parsePath() ([]step, error) {
	var steps []step
	if !strings.HasPrefix(p.in, "/") {
		return nil, fmt.Errorf("selector must be absolute (start with / or //)")
	}
	for p.pos < len(p.in) {
		ax := axisChild
		if strings.HasPrefix(p.in[p.pos:], "//") {
			ax = axisDescendant
			p.pos += 2
		} else if strings.HasPrefix(p.in[p.pos:], "/") {
			p.pos++
		} else {
			return nil, fmt.Errorf("expected / or // at %d", p.pos)
		}
		st, err := p.parseStep(ax)
		if err != nil {
			return nil, err
		}
		steps = append(steps, st)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("empty selector")
	}
	return steps, nil
}

func (p *parser) parseStep(ax axis) (step, error) {
	st := step{axis: ax}
	if p.pos < len(p.in) && p.in[p.pos] == '@' {
		st.axis = axisAttr
		p.pos++
	}
	name, err := p.parseNameTest()
	if err != nil {
		return st, err
	}
	if name == "*" {
		st.wantAny = true
	} else {
		prefix, local := splitQName(name)
		st.local = local
		if prefix != "" {
			uri, ok := p.resolver(prefix)
			if !ok {
				return st, fmt.Errorf("unbound namespace prefix %q", prefix)
			}
			st.space = uri
		}
		// An unprefixed name test matches names with no namespace URI,
		// regardless of any default xmlns in scope — XPath 1.0 never
		// applies a document's default namespace to unprefixed node
		// tests, unlike ordinary XML element/attribute resolution.
	}
	for p.pos < len(p.in) && p.in[p.pos] == '[' {
		pred, err := p.parsePredicate()
		if err != nil {
			return st, err
		}
		st.preds = append(st.preds, pred)
	}
	return st, nil
}

func (p *parser) parseNameTest() (string, error) {
	start := p.pos
	for p.pos < len(p.in) {
		c := p.in[p.pos]
		if c == '/' || c == '[' {
			break
		}
		p.pos++
	}
	if start == p.pos {
		return "", fmt.Errorf("expected name at %d", start)
	}
	return p.in[start:p.pos], nil
}

func (p *parser) parsePredicate() (predicate, error) {
	if p.in[p.pos] != '[' {
		return predicate{}, fmt.Errorf("expected [ at %d", p.pos)
	}
	end := strings.IndexByte(p.in[p.pos:], ']')
	if end < 0 {
		return predicate{}, fmt.Errorf("unterminated predicate")
	}
	body := p.in[p.pos+1 : p.pos+end]
	p.pos += end + 1

	if n, err := strconv.Atoi(strings.TrimSpace(body)); err == nil {
		return predicate{position: n}, nil
	}
	if !strings.HasPrefix(body, "@") {
		return predicate{}, fmt.Errorf("unsupported predicate %q", body)
	}
	body = body[1:]
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return predicate{attrLocal: strings.TrimSpace(body)}, nil
	}
	attr := strings.TrimSpace(body[:eq])
	val := strings.TrimSpace(body[eq+1:])
	val = strings.Trim(val, `"'`)
	return predicate{attrLocal: attr, attrValue: val, hasValue: true}, nil
}

func splitQName(s string) (prefix, local string) {
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}
