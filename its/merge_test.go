package its_test

import (
	"testing"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/its"
)

func lookupFrom(table map[string]string) its.LookupFunc {
	return func(msgctxt string, haveMsgctxt bool, msgid string) (string, bool) {
		v, ok := table[msgid]
		return v, ok
	}
}

func TestMergeReplaceInPlace(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its">
  <its:translateRule selector="//title" translate="yes"/>
</its:rules>`)
	root := mustParse(t, `<doc><title>Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	its.Merge(its.DefaultConfig(), rs, root, its.ReplaceInPlace, "es_ES", &diag, lookupFrom(map[string]string{"Hello": "Hola"}))

	title := root.ElementChildren()[0]
	if len(root.ElementChildren()) != 1 {
		t.Fatalf("got %d title elements, want 1 (replace in place must not add siblings)", len(root.ElementChildren()))
	}
	if got := its.Collect(title, its.Preserve, false); got != "Hola" {
		t.Fatalf("translated text = %q, want %q", got, "Hola")
	}
	if v, _ := title.Attr("xml", "lang"); v != "es-ES" {
		t.Fatalf("xml:lang = %q, want %q", v, "es-ES")
	}
}

func TestMergeDuplicateAsSibling(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its">
  <its:translateRule selector="//title" translate="yes"/>
</its:rules>`)
	root := mustParse(t, `<doc><title id="t1">Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	its.Merge(its.DefaultConfig(), rs, root, its.DuplicateAsSibling, "fr", &diag, lookupFrom(map[string]string{"Hello": "Bonjour"}))

	titles := root.ElementChildren()
	if len(titles) != 2 {
		t.Fatalf("got %d title elements, want 2 (original plus translated duplicate)", len(titles))
	}
	if got := its.Collect(titles[0], its.Preserve, false); got != "Hello" {
		t.Fatalf("original text changed to %q, want untouched %q", got, "Hello")
	}
	if got := its.Collect(titles[1], its.Preserve, false); got != "Bonjour" {
		t.Fatalf("duplicate text = %q, want %q", got, "Bonjour")
	}
	if v, _ := titles[1].Attr("xml", "lang"); v != "fr" {
		t.Fatalf("duplicate xml:lang = %q, want %q", v, "fr")
	}
	if _, ok := titles[1].Attr("", "id"); ok {
		t.Fatal("duplicated element must drop the id attribute")
	}
}

func TestMergeSkipsUnitsWithoutATranslation(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its">
  <its:translateRule selector="//title" translate="yes"/>
</its:rules>`)
	root := mustParse(t, `<doc><title>Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	its.Merge(its.DefaultConfig(), rs, root, its.ReplaceInPlace, "es", &diag, lookupFrom(nil))

	title := root.ElementChildren()[0]
	if got := its.Collect(title, its.Preserve, false); got != "Hello" {
		t.Fatalf("text = %q, want untouched %q (no catalog entry)", got, "Hello")
	}
	if _, ok := title.Attr("xml", "lang"); ok {
		t.Fatal("xml:lang must not be set when no translation was installed")
	}
}

func TestMergeFullEscapeInstallsPlainText(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its" xmlns:gt="https://www.gnu.org/s/gettext/ns/its/extensions/1.0">
  <its:translateRule selector="//title" translate="yes"/>
  <gt:escapeRule selector="//title" escape="yes"/>
</its:rules>`)
	root := mustParse(t, `<doc><title>Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	its.Merge(its.DefaultConfig(), rs, root, its.ReplaceInPlace, "es", &diag, lookupFrom(map[string]string{"Hello": "A & B < C"}))

	title := root.ElementChildren()[0]
	out := dom.Marshal(title)
	want := "<title xml:lang=\"es\">A &amp; B &lt; C</title>"
	if string(out) != want {
		t.Fatalf("serialized = %q, want %q", out, want)
	}
}

func TestMergeMiddleGroundEscapesAngleBracketsAndNumericAmp(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its" xmlns:gt="https://www.gnu.org/s/gettext/ns/its/extensions/1.0">
  <its:translateRule selector="//title" translate="yes"/>
  <gt:escapeRule selector="//title" escape="no"/>
</its:rules>`)
	root := mustParse(t, `<doc><title>Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	// Middle-ground escaping leaves a bare '&' alone (gettext's own loose
	// emulation), but still escapes '<'/'>' and an '&' that would
	// otherwise open a numeric character reference.
	its.Merge(its.DefaultConfig(), rs, root, its.ReplaceInPlace, "es", &diag, lookupFrom(map[string]string{"Hello": "A & B < C &#xa9;"}))

	title := root.ElementChildren()[0]
	out := dom.Marshal(title)
	want := `<title xml:lang="es">A & B &lt; C &amp;#xa9;</title>`
	if string(out) != want {
		t.Fatalf("serialized = %q, want %q", out, want)
	}
}

func TestMergeUnescapeIfXMLInstallsParsedMarkup(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its" xmlns:gt="https://www.gnu.org/s/gettext/ns/its/extensions/1.0">
  <its:translateRule selector="//title" translate="yes"/>
  <gt:escapeRule selector="//title" escape="no" unescape-if="xml"/>
</its:rules>`)
	root := mustParse(t, `<doc><title>Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	its.Merge(its.DefaultConfig(), rs, root, its.ReplaceInPlace, "es", &diag, lookupFrom(map[string]string{"Hello": "<b>Hola</b>"}))

	title := root.ElementChildren()[0]
	if got := its.Collect(title, its.Preserve, false); got != "<b>Hola</b>" {
		t.Fatalf("Collect after unescape-if=xml merge = %q, want %q", got, "<b>Hola</b>")
	}
}

func TestMergeUnescapeIfFallsBackOnInvalidMarkup(t *testing.T) {
	rs := loadRules(t, `
<its:rules xmlns:its="http://www.w3.org/2005/11/its" xmlns:gt="https://www.gnu.org/s/gettext/ns/its/extensions/1.0">
  <its:translateRule selector="//title" translate="yes"/>
  <gt:escapeRule selector="//title" escape="no" unescape-if="xhtml"/>
</its:rules>`)
	root := mustParse(t, `<doc><title>Hello</title></doc>`)
	var diag []its.Diagnostic
	rs.Apply(its.DefaultConfig(), root, &diag)

	its.Merge(its.DefaultConfig(), rs, root, its.ReplaceInPlace, "es", &diag, lookupFrom(map[string]string{"Hello": "<script>bad</script>"}))

	title := root.ElementChildren()[0]
	want := "&lt;script&gt;bad&lt;/script&gt;"
	if got := its.Collect(title, its.Preserve, false); got != want {
		t.Fatalf("Collect after fallback = %q, want %q (middle-ground-escaped plain text)", got, want)
	}
	foundMarkupDiag := false
	for _, d := range diag {
		if d.Kind == its.DiagMarkup {
			foundMarkupDiag = true
		}
	}
	if !foundMarkupDiag {
		t.Fatal("expected a DiagMarkup diagnostic for the rejected <script> tag")
	}
}
