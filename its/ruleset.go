package its

import (
	"fmt"
	"os"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/xpath"
)

// RuleSet is an ordered collection of Rules plus the ValuePool they
// write into (spec.md §3, Entity: RuleSet). Rule order is both the
// application order and the evaluation-merge order: later rules of the
// same category win for any name they assign.
type RuleSet struct {
	rules []Rule
	pool  *ValuePool
}

// NewRuleSet returns an empty RuleSet with a fresh ValuePool.
func NewRuleSet() *RuleSet {
	return &RuleSet{pool: NewValuePool()}
}

// Pool returns the RuleSet's ValuePool, for callers that need to
// inspect node values directly (the locator and extractor do not; they
// go through Eval).
func (rs *RuleSet) Pool() *ValuePool { return rs.pool }

// LoadString parses data as a rule-file document and appends its rules
// to rs, in document order, after any rules already loaded.
func (rs *RuleSet) LoadString(cfg *Config, data string, diag *[]Diagnostic) error {
	return rs.load(cfg, []byte(data), diag)
}

// LoadFile reads path and loads it the way LoadString does.
func (rs *RuleSet) LoadFile(cfg *Config, path string, diag *[]Diagnostic) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("its: %w", err)
	}
	return rs.load(cfg, b, diag)
}

func (rs *RuleSet) load(cfg *Config, data []byte, diag *[]Diagnostic) error {
	root, err := dom.Parse(data)
	if err != nil {
		return fmt.Errorf("its: rule file: %w", err)
	}
	if root.Name.Local != "rules" || root.Name.Space != NSIts {
		return fmt.Errorf("its: rule file root must be <rules> in namespace %s, got {%s}%s", NSIts, root.Name.Space, root.Name.Local)
	}
	for _, child := range root.ElementChildren() {
		if rule := rs.constructRule(cfg, child, diag); rule != nil {
			rs.rules = append(rs.rules, rule)
		}
	}
	return nil
}

// scopeResolver turns el's in-scope namespace bindings, captured at
// parse time on its dom.Scope, into an xpath.Resolver usable by the
// selector that el carries.
func scopeResolver(el *dom.Node) xpath.Resolver {
	return func(prefix string) (string, bool) {
		name, ok := el.ResolveNS(prefix + ":_")
		return name.Space, ok
	}
}

// constructRule dispatches el by local name to the §4.2 constructors,
// recovering a ruleError raised by stop() into a diagnostic and a nil
// rule (skip-and-warn, per spec.md §7's rule-file-error handling).
func (rs *RuleSet) constructRule(cfg *Config, el *dom.Node, diag *[]Diagnostic) (rule Rule) {
	defer func() {
		if r := recover(); r != nil {
			re, ok := r.(ruleError)
			if !ok {
				panic(r)
			}
			cfg.warn(diag, DiagRule, re.Error())
			rule = nil
		}
	}()

	if el.Name.Space != NSIts && el.Name.Space != NSExtension {
		stop("rule", "", "rule element {%s}%s is not in a recognized namespace", el.Name.Space, el.Name.Local)
	}
	resolve := scopeResolver(el)
	selector, ok := el.Attr("", "selector")
	if !ok {
		stop(el.Name.Local, "", "missing required selector attribute")
	}

	switch el.Name.Local {
	case "translateRule":
		v, ok := el.Attr("", "translate")
		if !ok {
			stop(Translate.String(), selector, "missing required translate attribute")
		}
		return NewTranslateRule(selector, v, resolve)

	case "locNoteRule":
		locNoteType, _ := el.Attr("", "locNoteType")
		locNotePointer, _ := el.Attr("", "locNotePointer")
		var locNote string
		haveLocNote := false
		for _, c := range el.ElementChildren() {
			if c.Name.Space == NSIts && c.Name.Local == "locNote" {
				locNote = Collect(c, Normalize, false)
				haveLocNote = true
				break
			}
		}
		return NewLocalizationNoteRule(selector, locNote, haveLocNote, locNotePointer, locNoteType, resolve)

	case "withinTextRule":
		v, ok := el.Attr("", "withinText")
		if !ok {
			stop(ElementWithinText.String(), selector, "missing required withinText attribute")
		}
		return NewElementWithinTextRule(selector, v, resolve)

	case "preserveSpaceRule":
		v, ok := el.Attr("", "space")
		if !ok {
			stop(PreserveSpace.String(), selector, "missing required space attribute")
		}
		return NewPreserveSpaceRule(selector, v, el.Name.Space == NSExtension, resolve)

	case "contextRule":
		if el.Name.Space != NSExtension {
			stop("rule", selector, "contextRule requires the gettext extension namespace")
		}
		cp, ok := el.Attr("", "contextPointer")
		if !ok {
			stop(Context.String(), selector, "missing required contextPointer attribute")
		}
		tp, _ := el.Attr("", "textPointer")
		return NewContextRule(selector, cp, tp, resolve)

	case "escapeRule":
		if el.Name.Space != NSExtension {
			stop("rule", selector, "escapeRule requires the gettext extension namespace")
		}
		v, ok := el.Attr("", "escape")
		if !ok {
			stop(Escape.String(), selector, "missing required escape attribute")
		}
		unescapeIf, haveUnescapeIf := el.Attr("", "unescape-if")
		return NewEscapeRule(selector, v, unescapeIf, haveUnescapeIf, resolve)

	default:
		stop("rule", selector, "unrecognized rule element %s", el.Name.Local)
	}
	return nil
}

// Apply runs every rule's applier against root, in insertion order.
func (rs *RuleSet) Apply(cfg *Config, root *dom.Node, diag *[]Diagnostic) {
	for _, r := range rs.rules {
		r.Apply(cfg, root, rs.pool, diag)
	}
}

// Eval computes the merged ValueMap for node by running every rule's
// evaluator in insertion order and merging the results with
// merge-with-replace semantics, so the last rule of a category to
// assign a name wins.
func (rs *RuleSet) Eval(node *dom.Node) ValueMap {
	var out ValueMap
	for _, r := range rs.rules {
		vm := r.Eval(rs.pool, node)
		out.Merge(&vm)
	}
	return out
}
