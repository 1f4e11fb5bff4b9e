package dom

import (
	"encoding/xml"
	"strings"
)

// A Scope represents the xml namespace scope in effect at a given
// position in the document: the stack of xmlns declarations visible
// from the root down to that node.
type Scope struct {
	ns []xml.Name
}

// JoinScope joins two Scopes together. When resolving prefixes using
// the returned scope, the prefix list of the argument Scope is
// searched before that of the receiver Scope.
func (outer *Scope) JoinScope(inner *Scope) *Scope {
	return &Scope{append(outer.ns, inner.ns...)}
}

// Resolve translates an XML QName (namespace-prefixed string) to an
// xml.Name with a canonicalized namespace in its Space field. If qname
// has no prefix, the default namespace is used. If a prefix cannot be
// resolved, the returned value's Space field holds the unresolved
// prefix; use ResolveNS to detect that case.
func (scope *Scope) Resolve(qname string) xml.Name {
	name, _ := scope.ResolveNS(qname)
	return name
}

// ResolveNS is like Resolve, but reports whether the prefix was
// resolved.
func (scope *Scope) ResolveNS(qname string) (xml.Name, bool) {
	var prefix, local string
	parts := strings.SplitN(qname, ":", 2)
	if len(parts) == 2 {
		prefix, local = parts[0], parts[1]
	} else {
		prefix, local = "", parts[0]
	}
	if prefix == "xml" {
		return xml.Name{Space: "xml", Local: local}, true
	}
	for i := len(scope.ns) - 1; i >= 0; i-- {
		if scope.ns[i].Local == prefix {
			return xml.Name{Space: scope.ns[i].Space, Local: local}, true
		}
	}
	return xml.Name{Space: prefix, Local: local}, false
}

// Prefix is the inverse of Resolve: it uses the closest prefix
// defined for a namespace to render name as a string of the form
// prefix:local. Unqualified names, and names in the default
// namespace, are rendered without a prefix.
func (scope *Scope) Prefix(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	// The "xml" prefix is predefined by the XML spec itself and never
	// requires (or permits) an xmlns:xml declaration to be in scope.
	if name.Space == "xml" {
		return "xml:" + name.Local
	}
	for i := len(scope.ns) - 1; i >= 0; i-- {
		if scope.ns[i].Space == name.Space {
			if scope.ns[i].Local == "" {
				return name.Local
			}
			return scope.ns[i].Local + ":" + name.Local
		}
	}
	return name.Local
}

func (scope *Scope) pushNS(tag xml.StartElement) {
	var ns []xml.Name
	for _, attr := range tag.Attr {
		if attr.Name.Space == "xmlns" {
			ns = append(ns, xml.Name{Space: attr.Value, Local: attr.Name.Local})
		} else if attr.Name.Local == "xmlns" {
			ns = append(ns, xml.Name{Space: attr.Value, Local: ""})
		}
	}
	if len(ns) > 0 {
		scope.ns = append(scope.ns, ns...)
		// Force future appends to copy, so that sibling scopes never
		// clobber each other's backing array.
		scope.ns = scope.ns[:len(scope.ns):len(scope.ns)]
	}
}

func isNSDecl(name xml.Name) bool {
	return name.Space == "xmlns" || name.Local == "xmlns"
}
