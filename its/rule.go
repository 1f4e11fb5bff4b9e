package its

import (
	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/xpath"
)

// Namespace URIs recognized by the rule constructors (spec.md §6).
const (
	NSIts       = "http://www.w3.org/2005/11/its"
	NSExtension = "https://www.gnu.org/s/gettext/ns/its/extensions/1.0"
)

// Category discriminates the six ITS data categories as a closed tagged
// union: spec.md §9 calls for variant-tag dispatch rather than open
// extensibility, the same shape droyo-go-xml's xsd package uses for
// its handful of schema construct kinds.
type Category int

const (
	Translate Category = iota
	LocalizationNote
	ElementWithinText
	PreserveSpace
	Context
	Escape
)

func (c Category) String() string {
	switch c {
	case Translate:
		return "translateRule"
	case LocalizationNote:
		return "locNoteRule"
	case ElementWithinText:
		return "withinTextRule"
	case PreserveSpace:
		return "preserveSpaceRule"
	case Context:
		return "contextRule"
	case Escape:
		return "escapeRule"
	default:
		return "rule"
	}
}

// Rule is the uniform interface every data category satisfies: an
// applier that merges default values into matching nodes, and an
// evaluator that computes the effective ValueMap for one node. Each
// variant's constructor (NewTranslateRule and so on) is defined below;
// ruleset.go's rule-file parser dispatches to them.
type Rule interface {
	Category() Category
	Selector() string
	Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic)
	Eval(pool *ValuePool, node *dom.Node) ValueMap
}

// baseRule holds the fields common to every variant (spec.md §3,
// Entity: Rule): the compiled selector and the resolver built from the
// namespace bindings captured at the rule's source position. Pointer
// attributes are not compiled with this resolver; extract.go compiles
// them with noNSResolver.
type baseRule struct {
	selector string
	expr     *xpath.Expr
	resolve  xpath.Resolver
}

func (b baseRule) Selector() string { return b.selector }

// applySelector runs the compiled selector against root and invokes fn
// for each matched node, recovering and warning on a rule-level panic
// raised by stop() so one bad rule never aborts the whole apply pass.
func (b baseRule) applySelector(cfg *Config, category Category, root *dom.Node, diag *[]Diagnostic, fn func(n *dom.Node)) {
	defer cfg.recoverRule(diag)
	for _, n := range b.expr.Eval(root) {
		fn(n)
	}
}

// newBaseRule compiles selector with resolve, raising a ruleError (via
// stop) that the rule-file loader turns into a skip-and-warn, per
// spec.md §7's rule-file-error handling.
func newBaseRule(category Category, selector string, resolve xpath.Resolver) baseRule {
	expr, err := xpath.Compile(selector, resolve)
	if err != nil {
		stop(category.String(), selector, "%s", err)
	}
	return baseRule{selector: selector, expr: expr, resolve: resolve}
}

// ---- Translate rule (§4.2.1) ----

type TranslateRule struct {
	baseRule
	value string
}

func NewTranslateRule(selector, translate string, resolve xpath.Resolver) *TranslateRule {
	if translate != "yes" && translate != "no" {
		stop(Translate.String(), selector, "translate must be yes or no, got %q", translate)
	}
	return &TranslateRule{baseRule: newBaseRule(Translate, selector, resolve), value: translate}
}

func (r *TranslateRule) Category() Category { return Translate }

func (r *TranslateRule) Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic) {
	r.applySelector(cfg, Translate, root, diag, func(n *dom.Node) {
		var vm ValueMap
		vm.Set("translate", r.value)
		pool.MergeInto(n, &vm)
	})
}

func (r *TranslateRule) Eval(pool *ValuePool, node *dom.Node) ValueMap {
	return evalTranslate(pool, node)
}

func evalTranslate(pool *ValuePool, node *dom.Node) ValueMap {
	var out ValueMap
	if node.IsAttr() {
		if v, ok := pool.Get(node).Get("translate"); ok {
			out.Set("translate", v)
		} else {
			out.Set("translate", "no")
		}
		return out
	}
	if v, ok := node.Attr(NSIts, "translate"); ok {
		out.Set("translate", v)
		return out
	}
	if v, ok := pool.Get(node).Get("translate"); ok {
		out.Set("translate", v)
		return out
	}
	if parent := node.ParentElement(); parent != nil {
		return evalTranslate(pool, parent)
	}
	out.Set("translate", "yes")
	return out
}

// ---- Localization-note rule (§4.2.2) ----

type LocalizationNoteRule struct {
	baseRule
	locNote        string
	haveLocNote    bool
	locNotePointer string
	locNoteType    string
}

func NewLocalizationNoteRule(selector, locNote string, haveLocNote bool, locNotePointer, locNoteType string, resolve xpath.Resolver) *LocalizationNoteRule {
	if !haveLocNote && locNotePointer == "" {
		stop(LocalizationNote.String(), selector, "requires an inline locNote or a locNotePointer")
	}
	return &LocalizationNoteRule{
		baseRule:       newBaseRule(LocalizationNote, selector, resolve),
		locNote:        locNote,
		haveLocNote:    haveLocNote,
		locNotePointer: locNotePointer,
		locNoteType:    locNoteType,
	}
}

func (r *LocalizationNoteRule) Category() Category { return LocalizationNote }

func (r *LocalizationNoteRule) Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic) {
	r.applySelector(cfg, LocalizationNote, root, diag, func(n *dom.Node) {
		var vm ValueMap
		if r.haveLocNote {
			vm.Set("locNote", r.locNote)
		}
		if r.locNotePointer != "" {
			vm.Set("locNotePointer", r.locNotePointer)
		}
		if r.locNoteType != "" {
			vm.Set("locNoteType", r.locNoteType)
		}
		pool.MergeInto(n, &vm)
	})
}

func (r *LocalizationNoteRule) Eval(pool *ValuePool, node *dom.Node) ValueMap {
	return evalLocNote(pool, node)
}

// pickValues returns the entries of src named in names, so that an
// evaluator reports only its own category's values from a node's
// shared ValueMap.
func pickValues(src *ValueMap, names ...string) ValueMap {
	var out ValueMap
	for _, name := range names {
		if v, ok := src.Get(name); ok {
			out.Set(name, v)
		}
	}
	return out
}

func evalLocNote(pool *ValuePool, node *dom.Node) ValueMap {
	var out ValueMap
	if node.IsAttr() {
		return pickValues(pool.Get(node), "locNote", "locNotePointer", "locNoteType")
	}
	_, hasNote := node.Attr(NSIts, "locNote")
	_, hasRef := node.Attr(NSIts, "locNoteRef")
	_, hasType := node.Attr(NSIts, "locNoteType")
	if hasNote || hasRef || hasType {
		if v, ok := node.Attr(NSIts, "locNote"); ok {
			out.Set("locNote", v)
		}
		if v, ok := node.Attr(NSIts, "locNoteRef"); ok {
			out.Set("locNotePointer", v)
		}
		if v, ok := node.Attr(NSIts, "locNoteType"); ok {
			out.Set("locNoteType", v)
		}
		return out
	}
	if vm := pickValues(pool.Get(node), "locNote", "locNotePointer", "locNoteType"); vm.Len() > 0 {
		return vm
	}
	if parent := node.ParentElement(); parent != nil {
		return evalLocNote(pool, parent)
	}
	return out
}

// ---- Element-within-text rule (§4.2.3) ----

type ElementWithinTextRule struct {
	baseRule
	value string
}

func NewElementWithinTextRule(selector, withinText string, resolve xpath.Resolver) *ElementWithinTextRule {
	if withinText != "yes" && withinText != "no" {
		stop(ElementWithinText.String(), selector, "withinText must be yes or no, got %q", withinText)
	}
	return &ElementWithinTextRule{baseRule: newBaseRule(ElementWithinText, selector, resolve), value: withinText}
}

func (r *ElementWithinTextRule) Category() Category { return ElementWithinText }

func (r *ElementWithinTextRule) Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic) {
	r.applySelector(cfg, ElementWithinText, root, diag, func(n *dom.Node) {
		if !n.IsElement() {
			return
		}
		var vm ValueMap
		vm.Set("withinText", r.value)
		pool.MergeInto(n, &vm)
	})
}

func (r *ElementWithinTextRule) Eval(pool *ValuePool, node *dom.Node) ValueMap {
	var out ValueMap
	if !node.IsElement() {
		return out
	}
	if v, ok := node.Attr(NSIts, "withinText"); ok {
		out.Set("withinText", v)
		return out
	}
	if v, ok := pool.Get(node).Get("withinText"); ok {
		out.Set("withinText", v)
		return out
	}
	out.Set("withinText", "no")
	return out
}

// ---- Preserve-space rule (§4.2.4) ----

type PreserveSpaceRule struct {
	baseRule
	value string
}

func NewPreserveSpaceRule(selector, space string, extension bool, resolve xpath.Resolver) *PreserveSpaceRule {
	switch space {
	case "preserve", "default":
	case "trim", "paragraph":
		if !extension {
			stop(PreserveSpace.String(), selector, "space=%q requires the gettext extension namespace", space)
		}
	default:
		stop(PreserveSpace.String(), selector, "unrecognized space value %q", space)
	}
	return &PreserveSpaceRule{baseRule: newBaseRule(PreserveSpace, selector, resolve), value: space}
}

func (r *PreserveSpaceRule) Category() Category { return PreserveSpace }

func (r *PreserveSpaceRule) Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic) {
	r.applySelector(cfg, PreserveSpace, root, diag, func(n *dom.Node) {
		var vm ValueMap
		vm.Set("space", r.value)
		pool.MergeInto(n, &vm)
	})
}

func (r *PreserveSpaceRule) Eval(pool *ValuePool, node *dom.Node) ValueMap {
	return evalSpace(pool, node)
}

func evalSpace(pool *ValuePool, node *dom.Node) ValueMap {
	var out ValueMap
	target := node
	if node.IsAttr() {
		target = node.ParentElement()
		if target == nil {
			out.Set("space", "default")
			return out
		}
	}
	if v, ok := target.Attr("xml", "space"); ok {
		out.Set("space", v)
		return out
	}
	if v, ok := pool.Get(target).Get("space"); ok {
		out.Set("space", v)
		return out
	}
	if parent := target.ParentElement(); parent != nil {
		return evalSpace(pool, parent)
	}
	out.Set("space", "default")
	return out
}

// ---- Context rule (§4.2.5, gettext extension) ----

type ContextRule struct {
	baseRule
	contextPointer string
	textPointer    string
}

func NewContextRule(selector, contextPointer, textPointer string, resolve xpath.Resolver) *ContextRule {
	if contextPointer == "" {
		stop(Context.String(), selector, "requires contextPointer")
	}
	return &ContextRule{baseRule: newBaseRule(Context, selector, resolve), contextPointer: contextPointer, textPointer: textPointer}
}

func (r *ContextRule) Category() Category { return Context }

func (r *ContextRule) Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic) {
	r.applySelector(cfg, Context, root, diag, func(n *dom.Node) {
		var vm ValueMap
		vm.Set("contextPointer", r.contextPointer)
		if r.textPointer != "" {
			vm.Set("textPointer", r.textPointer)
		}
		pool.MergeInto(n, &vm)
	})
}

func (r *ContextRule) Eval(pool *ValuePool, node *dom.Node) ValueMap {
	return pickValues(pool.Get(node), "contextPointer", "textPointer")
}

// ---- Escape rule (§4.2.6, gettext extension) ----

type EscapeRule struct {
	baseRule
	escape     string
	unescapeIf string
	haveUnesc  bool
}

func NewEscapeRule(selector, escape string, unescapeIf string, haveUnescapeIf bool, resolve xpath.Resolver) *EscapeRule {
	if escape != "yes" && escape != "no" {
		stop(Escape.String(), selector, "escape must be yes or no, got %q", escape)
	}
	if haveUnescapeIf {
		switch unescapeIf {
		case "xml", "xhtml", "html", "no":
		default:
			stop(Escape.String(), selector, "unrecognized unescape-if value %q", unescapeIf)
		}
	}
	return &EscapeRule{
		baseRule:   newBaseRule(Escape, selector, resolve),
		escape:     escape,
		unescapeIf: unescapeIf,
		haveUnesc:  haveUnescapeIf,
	}
}

func (r *EscapeRule) Category() Category { return Escape }

func (r *EscapeRule) Apply(cfg *Config, root *dom.Node, pool *ValuePool, diag *[]Diagnostic) {
	r.applySelector(cfg, Escape, root, diag, func(n *dom.Node) {
		var vm ValueMap
		vm.Set("escape", r.escape)
		if r.haveUnesc {
			vm.Set("unescape-if", r.unescapeIf)
		}
		pool.MergeInto(n, &vm)
	})
}

func (r *EscapeRule) Eval(pool *ValuePool, node *dom.Node) ValueMap {
	return evalEscape(pool, node)
}

func evalEscape(pool *ValuePool, node *dom.Node) ValueMap {
	var out ValueMap
	if node.IsAttr() {
		return pickValues(pool.Get(node), "escape", "unescape-if")
	}
	_, hasEscape := node.Attr(NSExtension, "escape")
	_, hasUnesc := node.Attr(NSExtension, "unescape-if")
	if hasEscape || hasUnesc {
		if v, ok := node.Attr(NSExtension, "escape"); ok {
			out.Set("escape", v)
		}
		if v, ok := node.Attr(NSExtension, "unescape-if"); ok {
			out.Set("unescape-if", v)
		}
		return out
	}
	if vm := pickValues(pool.Get(node), "escape", "unescape-if"); vm.Len() > 0 {
		return vm
	}
	if parent := node.ParentElement(); parent != nil {
		return evalEscape(pool, parent)
	}
	return out
}
