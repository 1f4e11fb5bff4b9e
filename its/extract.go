package its

import (
	"strings"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/xpath"
)

// noNSResolver resolves no prefixes; it is used for pointer attributes
// (textPointer, contextPointer, locNotePointer), which are stored in
// the ValuePool as plain strings with no namespace scope attached.
// Every example pointer in spec.md (e.g. "//meta/@note") is itself
// unprefixed, so this covers the expected usage; a prefixed pointer
// fails to compile and is reported as a rule-level diagnostic instead
// of silently resolving against the wrong namespace.
func noNSResolver(string) (string, bool) { return "", false }

func resolvePointer(cfg *Config, root *dom.Node, pointer string, mode Mode, diag *[]Diagnostic) (string, bool) {
	expr, err := xpath.Compile(pointer, noNSResolver)
	if err != nil {
		cfg.warn(diag, DiagRule, "pointer %q: %v", pointer, err)
		return "", false
	}
	matches := expr.Eval(root)
	if len(matches) == 0 {
		return "", false
	}
	return Collect(matches[0], mode, false), true
}

// ExtractedMessage is the boundary record the extractor hands to the
// caller's emit callback (spec.md §4.6, Entity: Message plus the
// emit() external interface of §6).
type ExtractedMessage struct {
	MsgContext     string
	HaveMsgContext bool
	MsgID          string
	File           string
	Line           int
	Comment        string
	Marker         string
	Mode           Mode
}

// EmitFunc receives one extracted message at a time, in document
// order.
type EmitFunc func(ExtractedMessage)

// spaceToMode maps the Preserve-space rule's recognized values to a
// text-collector Mode. "default" is treated as NORMALIZE: absent an
// explicit xml:space="preserve", ITS-style tooling collapses
// insignificant whitespace the way HTML and gettext both do; "trim"
// and "paragraph" are the gettext extension modes named directly
// after their Mode counterparts.
func spaceToMode(space string) Mode {
	switch space {
	case "preserve":
		return Preserve
	case "trim":
		return Trim
	case "paragraph":
		return NormalizeParagraph
	default: // "default", or unrecognized (already rejected at rule construction)
		return Normalize
	}
}

// Extract locates every translation unit in root and invokes emit for
// each one whose msgid is non-empty after normalization, in document
// order (spec.md §4.6).
func Extract(cfg *Config, rs *RuleSet, root *dom.Node, file string, diag *[]Diagnostic, emit EmitFunc) {
	var units []*dom.Node
	ExtractUnits(rs, root, &units)
	for _, u := range units {
		extractOne(cfg, rs, u, file, diag, emit)
	}
}

func extractOne(cfg *Config, rs *RuleSet, u *dom.Node, file string, diag *[]Diagnostic, emit EmitFunc) {
	values := rs.Eval(u)
	spaceVal, _ := values.Get("space")
	mode := spaceToMode(spaceVal)

	var msgid string
	if tp, ok := values.Get("textPointer"); ok {
		msgid, ok = resolvePointer(cfg, u, tp, Preserve, diag)
		if !ok {
			return
		}
	} else {
		// Escaping is always off during extraction, regardless of the
		// unit's effective escape value: msgid text is for human
		// translators (spec.md §4.6), unless the caller explicitly opts
		// into the non-default behavior via WithEscapeOnExtract.
		escapeVal, _ := values.Get("escape")
		escape := cfg.escapeOnExtract && escapeVal == "yes"
		msgid = Collect(u, mode, escape)
	}
	if msgid == "" {
		return
	}

	comment := effectiveComment(cfg, rs, u, values, diag)

	var msgctxt string
	haveCtx := false
	if cp, ok := values.Get("contextPointer"); ok {
		if v, ok := resolvePointer(cfg, u, cp, Preserve, diag); ok {
			msgctxt, haveCtx = v, true
		}
	}

	emit(ExtractedMessage{
		MsgContext:     msgctxt,
		HaveMsgContext: haveCtx,
		MsgID:          msgid,
		File:           file,
		Line:           lineOf(u),
		Comment:        comment,
		Marker:         markerOf(u),
		Mode:           mode,
	})
}

func effectiveComment(cfg *Config, rs *RuleSet, u *dom.Node, values ValueMap, diag *[]Diagnostic) string {
	if v, ok := values.Get("locNote"); ok && v != "" {
		return v
	}
	if p, ok := values.Get("locNotePointer"); ok {
		if v, ok := resolvePointer(cfg, u, p, Preserve, diag); ok {
			return v
		}
	}
	owner := u
	if owner.IsAttr() {
		owner = owner.ParentElement()
	}
	if owner == nil {
		return ""
	}
	comments := owner.PrecedingComments()
	if len(comments) == 0 {
		return ""
	}
	lines := make([]string, len(comments))
	for i, c := range comments {
		lines[i] = strings.TrimSpace(c.Data)
	}
	return strings.Join(lines, "\n")
}

func lineOf(u *dom.Node) int {
	if u.IsAttr() {
		if p := u.ParentElement(); p != nil {
			return p.Line
		}
		return 0
	}
	return u.Line
}

// markerOf renders "parentTag/tag" for an element unit and
// "grandparentTag/parentTag@attrName" for an attribute unit (spec.md
// §4.6).
func markerOf(u *dom.Node) string {
	if u.IsAttr() {
		parent := u.ParentElement()
		if parent == nil {
			return "@" + u.Name.Local
		}
		grandparent := parent.ParentElement()
		gp := ""
		if grandparent != nil {
			gp = grandparent.Name.Local
		}
		return gp + "/" + parent.Name.Local + "@" + u.Name.Local
	}
	parent := u.ParentElement()
	if parent == nil {
		return u.Name.Local
	}
	return parent.Name.Local + "/" + u.Name.Local
}
