// Package dom converts an XML document into a tree of Nodes, preserving
// mixed content (text, CDATA, comments and entity references) in document
// order, with namespace-aware attribute access and a per-node integer slot
// for side tables such as its.ValuePool.
//
// The tree shape is deliberately richer than a typical "encoding/xml as a
// tree" wrapper: the ITS text collector (package its) must walk text,
// CDATA, comments and entity references as distinct ordered children of
// an element, not as an opaque content blob.
package dom

import "encoding/xml"

// Kind discriminates the role a Node plays in the tree.
type Kind int

const (
	// Element is a tagged element with attributes and children.
	Element Kind = iota
	// Text is an ordinary run of character data.
	Text
	// CDATA is a CDATA marked section.
	CDATA
	// Comment is an XML comment.
	Comment
	// EntityRef is a general (named) entity reference that could not
	// be resolved against the five predefined XML entities, kept
	// verbatim as "&name;".
	EntityRef
	// RawText is text content whose bytes must be written to the
	// output exactly as stored, without further escaping. It is
	// produced only by the ITS merger's middle-ground escape path (C7);
	// dom.Parse and the microxml builder never produce it.
	RawText
	// Attr is an attribute of an Element; it never appears in a
	// Children list, only in the owning Element's Attrs list.
	Attr
)

func (k Kind) String() string {
	switch k {
	case Element:
		return "element"
	case Text:
		return "text"
	case CDATA:
		return "cdata"
	case Comment:
		return "comment"
	case EntityRef:
		return "entity-ref"
	case RawText:
		return "raw-text"
	case Attr:
		return "attr"
	default:
		return "unknown"
	}
}

// A Node is a single node in a parsed document: an element, a piece of
// text-like content, or an attribute. The byte slice backing a Node's
// Data field from a freshly Parsed document may be shared with other
// Nodes and should be treated as read-only; Nodes created by Set-style
// mutators own their own strings.
type Node struct {
	Kind Kind
	Name xml.Name // Element and Attr
	Data string   // Text/CDATA/Comment/EntityRef/RawText content, or Attr value
	Scope

	Parent   *Node
	Attrs    []*Node // Kind == Attr, only set on Element nodes
	Children []*Node // Text/CDATA/Comment/EntityRef/RawText/Element, only set on Element nodes

	Line int // 1-based source line of an Element's start tag; 0 if unknown

	slot int // its.ValuePool index; 0 means "no values yet"
}

// Slot returns the node's current value-pool slot (0 if none has been
// assigned).
func (n *Node) Slot() int { return n.slot }

// SetSlot assigns the node's value-pool slot.
func (n *Node) SetSlot(i int) { n.slot = i }

// IsElement reports whether n is an Element node.
func (n *Node) IsElement() bool { return n.Kind == Element }

// IsAttr reports whether n is an Attr node.
func (n *Node) IsAttr() bool { return n.Kind == Attr }

// Attr returns the value of the first attribute of n matching space and
// local. If space is empty, only the local name is considered. Returns
// ("", false) if no such attribute exists. n must be an Element.
func (n *Node) Attr(space, local string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local != local {
			continue
		}
		if space == "" || space == a.Name.Space {
			return a.Data, true
		}
	}
	return "", false
}

// SetAttr adds or replaces an attribute on an Element node.
func (n *Node) SetAttr(space, local, value string) {
	for _, a := range n.Attrs {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			a.Data = value
			return
		}
	}
	n.Attrs = append(n.Attrs, &Node{
		Kind:   Attr,
		Name:   xml.Name{Space: space, Local: local},
		Data:   value,
		Parent: n,
	})
}

// RemoveAttr deletes the first attribute of n matching space and local,
// if any.
func (n *Node) RemoveAttr(space, local string) {
	for i, a := range n.Attrs {
		if a.Name.Local == local && (space == "" || a.Name.Space == space) {
			n.Attrs = append(n.Attrs[:i], n.Attrs[i+1:]...)
			return
		}
	}
}

// ParentElement returns the nearest ancestor Element of n: n.Parent for
// an Attr or content node, or n.Parent for an Element. Returns nil at
// the root.
func (n *Node) ParentElement() *Node {
	if n == nil {
		return nil
	}
	return n.Parent
}

// ElementChildren returns the Element children of n, in document order.
func (n *Node) ElementChildren() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == Element {
			out = append(out, c)
		}
	}
	return out
}

// SearchFunc traverses the tree rooted at n in depth-first document
// order and returns every Element node for which fn returns true. It
// does not search beneath a matching element.
func (n *Node) SearchFunc(fn func(*Node) bool) []*Node {
	var results []*Node
	var walk func(*Node)
	walk = func(el *Node) {
		if fn(el) {
			results = append(results, el)
			return
		}
		for _, c := range el.Children {
			if c.Kind == Element {
				walk(c)
			}
		}
	}
	for _, c := range n.Children {
		if c.Kind == Element {
			walk(c)
		}
	}
	return results
}

// Search finds every Element descendant of n with the given local name
// and namespace (space == "" matches any namespace).
func (n *Node) Search(space, local string) []*Node {
	return n.SearchFunc(func(el *Node) bool {
		if el.Name.Local != local {
			return false
		}
		return space == "" || space == el.Name.Space
	})
}

// precedingComments returns the contiguous run of Comment nodes
// immediately preceding n among its parent's children (ignoring
// nothing; the run must be unbroken), in document order.
func (n *Node) precedingComments() []*Node {
	if n.Parent == nil {
		return nil
	}
	siblings := n.Parent.Children
	idx := -1
	for i, c := range siblings {
		if c == n {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return nil
	}
	var start int
	for start = idx; start > 0; start-- {
		if siblings[start-1].Kind != Comment {
			break
		}
	}
	if start == idx {
		return nil
	}
	return siblings[start:idx]
}

// PrecedingComments is the exported form of precedingComments, used by
// the extractor's locNote fallback (spec.md §4.6).
func (n *Node) PrecedingComments() []*Node { return n.precedingComments() }
