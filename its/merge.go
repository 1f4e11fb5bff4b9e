package its

import (
	"regexp"
	"strings"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/microxml"
)

// MergeMode selects how a located unit's translation is installed.
type MergeMode int

const (
	// ReplaceInPlace clears the unit node's children and writes the
	// translation there.
	ReplaceInPlace MergeMode = iota
	// DuplicateAsSibling shallow-copies the unit's owning element
	// (tag and attributes, dropping "id") as a following sibling and
	// writes the translation into the copy instead.
	DuplicateAsSibling
)

// LookupFunc resolves a catalog entry the way spec.md §6's
// lookup(msgctxt, msgid) external interface does.
type LookupFunc func(msgctxt string, haveMsgctxt bool, msgid string) (translation string, ok bool)

// Merge locates every translation unit in root and, for each one with
// a non-empty catalog entry, installs its translation under mode,
// tagging the target with xml:lang set to lang's BCP-47 form
// (spec.md §4.7).
func Merge(cfg *Config, rs *RuleSet, root *dom.Node, mode MergeMode, lang string, diag *[]Diagnostic, lookup LookupFunc) {
	var units []*dom.Node
	ExtractUnits(rs, root, &units)
	bcp47 := FormatBCP47(lang)
	for _, u := range units {
		mergeOne(cfg, rs, u, mode, bcp47, diag, lookup)
	}
}

func mergeOne(cfg *Config, rs *RuleSet, u *dom.Node, mode MergeMode, bcp47 string, diag *[]Diagnostic, lookup LookupFunc) {
	values := rs.Eval(u)
	spaceVal, _ := values.Get("space")
	colMode := spaceToMode(spaceVal)

	var msgid string
	if tp, ok := values.Get("textPointer"); ok {
		msgid, ok = resolvePointer(cfg, u, tp, Preserve, diag)
		if !ok {
			return
		}
	} else {
		msgid = Collect(u, colMode, false)
	}
	if msgid == "" {
		return
	}

	var msgctxt string
	haveCtx := false
	if cp, ok := values.Get("contextPointer"); ok {
		if v, ok := resolvePointer(cfg, u, cp, Preserve, diag); ok {
			msgctxt, haveCtx = v, true
		}
	}

	translation, ok := lookup(msgctxt, haveCtx, msgid)
	if !ok || translation == "" {
		return
	}

	escapeVal, _ := values.Get("escape")
	if escapeVal == "" {
		escapeVal = "no"
	}
	unescapeIf, _ := values.Get("unescape-if")
	if unescapeIf == "" {
		unescapeIf = "no"
	}

	if u.IsAttr() {
		mergeAttr(u, mode, bcp47, translation)
		return
	}
	mergeElement(cfg, u, mode, bcp47, translation, escapeVal == "yes", unescapeIf, diag)
}

// mergeAttr installs translation into the attribute unit u, under its
// owning element (or a duplicate of it). Attribute values are always
// fully escaped at serialization (dom.Node's Attr encoding path has no
// raw/verbatim mode), so the middle-ground policy's deliberately
// under-escaped output has no attribute analogue; a bare '&' is never
// acceptable inside a quoted attribute value even under that policy's
// loose emulation of gettext's own behavior.
func mergeAttr(u *dom.Node, mode MergeMode, bcp47, translation string) {
	owner := u.ParentElement()
	if owner == nil {
		return
	}
	target := owner
	if mode == DuplicateAsSibling {
		target = duplicateElement(owner)
	}
	target.SetAttr("xml", "lang", bcp47)
	target.SetAttr(u.Name.Space, u.Name.Local, translation)
}

func mergeElement(cfg *Config, u *dom.Node, mode MergeMode, bcp47, translation string, escapeYes bool, unescapeIf string, diag *[]Diagnostic) {
	target := u
	if mode == DuplicateAsSibling {
		target = duplicateElement(u)
	}
	target.SetAttr("xml", "lang", bcp47)
	target.Children = nil

	if escapeYes {
		target.Children = append(target.Children, &dom.Node{Kind: dom.Text, Data: translation, Parent: target})
		return
	}

	if mxMode, ok := microxmlModeFor(unescapeIf); ok {
		warn := func(format string, args ...interface{}) { cfg.warn(diag, DiagSurrogate, format, args...) }
		if microxml.Parse(mxMode, translation, target, warn) {
			return
		}
		cfg.warn(diag, DiagMarkup, "translator markup failed unescape-if=%s validation, falling back to plain text", unescapeIf)
	}
	target.Children = append(target.Children, &dom.Node{Kind: dom.RawText, Data: middleGroundEscape(translation), Parent: target})
}

func microxmlModeFor(unescapeIf string) (microxml.Mode, bool) {
	switch unescapeIf {
	case "xml":
		return microxml.SimpleXML, true
	case "xhtml":
		return microxml.SimpleXHTML, true
	case "html":
		return microxml.SimpleHTML, true
	default: // "no"
		return 0, false
	}
}

// duplicateElement shallow-copies el (tag, namespace scope and
// attributes, dropping "id") as a following sibling with no children,
// and returns the copy (spec.md §4.7 step 4, DUPLICATE_AS_SIBLING).
func duplicateElement(el *dom.Node) *dom.Node {
	parent := el.Parent
	dup := &dom.Node{
		Kind:   dom.Element,
		Name:   el.Name,
		Scope:  el.Scope,
		Parent: parent,
	}
	for _, a := range el.Attrs {
		if a.Name.Local == "id" {
			continue
		}
		dup.SetAttr(a.Name.Space, a.Name.Local, a.Data)
	}
	if parent == nil {
		return dup
	}
	for i, c := range parent.Children {
		if c == el {
			rest := append([]*dom.Node{dup}, parent.Children[i+1:]...)
			parent.Children = append(parent.Children[:i+1], rest...)
			break
		}
	}
	return dup
}

var numCharRefAfterAmp = regexp.MustCompile(`^#(?:[0-9]+|[xX][0-9A-Fa-f]+);`)

// middleGroundEscape implements the §4.7 escape table's "middle"
// column: '<' and '>' are always encoded; '&' is encoded only when it
// would otherwise begin a numeric character reference, so that a
// reference like "&#xa9;" or a named entity like "&copy;" survives as
// literal text while still being distinguishable as escaped input.
func middleGroundEscape(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			if loc := numCharRefAfterAmp.FindStringIndex(s[i+1:]); loc != nil && loc[0] == 0 {
				b.WriteString("&amp;")
			} else {
				b.WriteByte('&')
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
