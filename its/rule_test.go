package its_test

import (
	"testing"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/its"
)

func noNS(string) (string, bool) { return "", true }

func mustParse(t *testing.T, s string) *dom.Node {
	t.Helper()
	root, err := dom.Parse([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func TestTranslateRuleDefaultYes(t *testing.T) {
	root := mustParse(t, `<r><p>hi</p></r>`)
	rule := its.NewTranslateRule("//r", "yes", noNS)
	pool := its.NewValuePool()
	var diag []its.Diagnostic
	rule.Apply(its.DefaultConfig(), root, pool, &diag)

	p := root.ElementChildren()[0]
	vm := rule.Eval(pool, p)
	v, _ := vm.Get("translate")
	if v != "yes" {
		t.Fatalf("translate on unmatched descendant = %q, want yes (inherited from parent default)", v)
	}
}

func TestTranslateRuleUnnamespacedAttrDoesNotOverridePool(t *testing.T) {
	root := mustParse(t, `<r><p translate="no">hi</p></r>`)
	rule := its.NewTranslateRule("//r", "yes", noNS)
	pool := its.NewValuePool()
	var diag []its.Diagnostic
	rule.Apply(its.DefaultConfig(), root, pool, &diag)

	p := root.ElementChildren()[0]
	// translate isn't in the ITS namespace on p (it's unprefixed here),
	// so this checks that pool/inheritance resolution reaches the rule
	// value, not the local unnamespaced attribute.
	vm := rule.Eval(pool, p)
	v, _ := vm.Get("translate")
	if v != "yes" {
		t.Fatalf("translate = %q, want yes (rule value via pool, since local attr is not in the ITS namespace)", v)
	}
}

func TestTranslateRuleAttrNoInheritance(t *testing.T) {
	root := mustParse(t, `<r translate="yes"><p id="x"/></r>`)
	attrRule := its.NewTranslateRule("//r", "yes", noNS)
	pool := its.NewValuePool()
	var diag []its.Diagnostic
	attrRule.Apply(its.DefaultConfig(), root, pool, &diag)

	p := root.ElementChildren()[0]
	idAttr := p.Attrs[0]
	vm := attrRule.Eval(pool, idAttr)
	v, _ := vm.Get("translate")
	if v != "no" {
		t.Fatalf("attribute translate = %q, want no (attributes never inherit translate)", v)
	}
}

func TestTranslateRuleRejectsBadValue(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewTranslateRule did not panic on an invalid translate value")
		}
	}()
	its.NewTranslateRule("//r", "maybe", noNS)
}

func TestLocNoteInlineNoteIsInheritedByChild(t *testing.T) {
	root := mustParse(t, `<r><p/><q/></r>`)
	ruleSet := its.NewRuleSet()
	var diag []its.Diagnostic
	err := ruleSet.LoadString(its.DefaultConfig(), `
<its:rules xmlns:its="http://www.w3.org/2005/11/its">
  <its:locNoteRule selector="//r" locNotePointer="none"><its:locNote>top</its:locNote></its:locNoteRule>
</its:rules>`, &diag)
	if err != nil {
		t.Fatal(err)
	}
	ruleSet.Apply(its.DefaultConfig(), root, &diag)

	p := root.ElementChildren()[0]
	vm := ruleSet.Eval(p)
	v, _ := vm.Get("locNote")
	if v != "top" {
		t.Fatalf("locNote = %q, want inherited value %q", v, "top")
	}
}

func TestWithinTextDefaultNo(t *testing.T) {
	root := mustParse(t, `<r><b/></r>`)
	b := root.ElementChildren()[0]
	rule := its.NewElementWithinTextRule("//x", "yes", noNS)
	pool := its.NewValuePool()
	vm := rule.Eval(pool, b)
	v, _ := vm.Get("withinText")
	if v != "no" {
		t.Fatalf("withinText default = %q, want no", v)
	}
}

func TestPreserveSpaceXmlSpaceWins(t *testing.T) {
	root := mustParse(t, `<r><p xml:space="preserve">  x  </p></r>`)
	rule := its.NewPreserveSpaceRule("//r", "default", false, noNS)
	pool := its.NewValuePool()
	var diag []its.Diagnostic
	rule.Apply(its.DefaultConfig(), root, pool, &diag)

	p := root.ElementChildren()[0]
	vm := rule.Eval(pool, p)
	v, _ := vm.Get("space")
	if v != "preserve" {
		t.Fatalf("space = %q, want preserve (xml:space overrides rule default)", v)
	}
}

func TestPreserveSpaceExtensionValuesRequireNamespace(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewPreserveSpaceRule did not panic for trim without the extension flag")
		}
	}()
	its.NewPreserveSpaceRule("//r", "trim", false, noNS)
}

func TestEscapeRuleInheritsUntilLocalOverride(t *testing.T) {
	root := mustParse(t, `<r><p><b/></p></r>`)
	ruleSet := its.NewRuleSet()
	var diag []its.Diagnostic
	err := ruleSet.LoadString(its.DefaultConfig(), `
<its:rules xmlns:its="http://www.w3.org/2005/11/its" xmlns:gt="https://www.gnu.org/s/gettext/ns/its/extensions/1.0">
  <gt:escapeRule selector="//r" escape="no" unescape-if="xml"/>
</its:rules>`, &diag)
	if err != nil {
		t.Fatal(err)
	}
	ruleSet.Apply(its.DefaultConfig(), root, &diag)

	b := root.ElementChildren()[0].ElementChildren()[0]
	vm := ruleSet.Eval(b)
	v, _ := vm.Get("unescape-if")
	if v != "xml" {
		t.Fatalf("unescape-if on grandchild = %q, want inherited %q", v, "xml")
	}
}

func TestContextRuleRequiresContextPointer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewContextRule did not panic without a contextPointer")
		}
	}()
	its.NewContextRule("//r", "", "", noNS)
}
