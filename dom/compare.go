package dom

import "sort"

// Equal reports whether two Nodes are structurally equal, ignoring
// sub-element order and surrounding whitespace-only text runs. It is
// intended for tests that build an expected tree and compare it against
// a parsed one.
func Equal(a, b *Node) bool {
	return equal(a, b, 0)
}

const maxCompareDepth = 1000

func equal(a, b *Node, depth int) bool {
	if depth > maxCompareDepth {
		return false
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Element:
		return equalElement(a, b, depth)
	default:
		return a.Data == b.Data
	}
}

func equalElement(a, b *Node, depth int) bool {
	if a.Name != b.Name {
		return false
	}
	if !equalAttrs(a.Attrs, b.Attrs) {
		return false
	}
	ac := significantChildren(a)
	bc := significantChildren(b)
	if len(ac) != len(bc) {
		return false
	}
	sort.Slice(ac, func(i, j int) bool { return childKey(ac[i]) < childKey(ac[j]) })
	sort.Slice(bc, func(i, j int) bool { return childKey(bc[i]) < childKey(bc[j]) })
	for i := range ac {
		if !equal(ac[i], bc[i], depth+1) {
			return false
		}
	}
	return true
}

// significantChildren drops whitespace-only text children so that
// cosmetic indentation differences don't defeat Equal.
func significantChildren(n *Node) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if (c.Kind == Text || c.Kind == CDATA) && isAllSpace(c.Data) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isAllSpace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}

func childKey(n *Node) string {
	if n.Kind == Element {
		return n.Name.Space + " " + n.Name.Local
	}
	return n.Data
}

func equalAttrs(a, b []*Node) bool {
	if len(a) != len(b) {
		return false
	}
	am := make(map[string]string, len(a))
	for _, n := range a {
		am[n.Name.Space+" "+n.Name.Local] = n.Data
	}
	for _, n := range b {
		v, ok := am[n.Name.Space+" "+n.Name.Local]
		if !ok || v != n.Data {
			return false
		}
	}
	return true
}
