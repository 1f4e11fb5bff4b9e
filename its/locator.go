package its

import "github.com/CognitoIQ/go-its/dom"

// IsTranslationUnit reports whether node, evaluated against rs at the
// given nesting depth, qualifies as a self-contained translation unit
// (spec.md §4.5). depth is the number of translation-unit ancestors
// already accepted on the path from the root call; pass 0 for a
// top-level candidate.
func IsTranslationUnit(rs *RuleSet, node *dom.Node, depth int) bool {
	if !node.IsElement() && !node.IsAttr() {
		return false
	}
	values := rs.Eval(node)
	if v, _ := values.Get("translate"); v != "yes" {
		return false
	}
	if depth > 0 {
		if v, _ := values.Get("withinText"); v != "yes" {
			return false
		}
	}
	if node.IsAttr() {
		return true
	}
	for _, c := range node.Children {
		switch c.Kind {
		case dom.Text, dom.CDATA, dom.EntityRef, dom.Comment:
			continue
		case dom.Element:
			if !IsTranslationUnit(rs, c, depth+1) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// ExtractUnits appends every translation unit reachable from node,
// without descending into the children of a unit already found
// (spec.md §4.5's self-containment invariant): a located unit owns its
// entire translatable subtree.
func ExtractUnits(rs *RuleSet, node *dom.Node, out *[]*dom.Node) {
	if node.IsElement() {
		for _, a := range node.Attrs {
			if IsTranslationUnit(rs, a, 0) {
				*out = append(*out, a)
			}
		}
	}
	if IsTranslationUnit(rs, node, 0) {
		*out = append(*out, node)
		return
	}
	for _, c := range node.ElementChildren() {
		ExtractUnits(rs, c, out)
	}
}
