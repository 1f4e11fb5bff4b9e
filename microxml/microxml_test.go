package microxml_test

import (
	"fmt"
	"testing"

	"github.com/CognitoIQ/go-its/dom"
	"github.com/CognitoIQ/go-its/microxml"
)

func TestValidateSimpleXMLAcceptsAnyASCIITag(t *testing.T) {
	if !microxml.Validate(microxml.SimpleXML, "<custom-tag a=\"1\">x</custom-tag>") {
		t.Fatal("SimpleXML should accept any well-formed ASCII tag name")
	}
}

func TestValidateSimpleXHTMLRejectsUnknownTag(t *testing.T) {
	if microxml.Validate(microxml.SimpleXHTML, "<script>bad</script>") {
		t.Fatal("SimpleXHTML should reject a tag outside its allowlist")
	}
	if !microxml.Validate(microxml.SimpleXHTML, "<b>ok</b>") {
		t.Fatal("SimpleXHTML should accept an allowlisted tag")
	}
}

func TestValidateSimpleHTMLIsCaseInsensitive(t *testing.T) {
	if !microxml.Validate(microxml.SimpleHTML, "<B>shout</B>") {
		t.Fatal("SimpleHTML should match tag names case-insensitively")
	}
}

func TestValidateSimpleHTMLVoidElementHasNoEndTag(t *testing.T) {
	if !microxml.Validate(microxml.SimpleHTML, "text<br>more") {
		t.Fatal("SimpleHTML should accept an unclosed void element like <br>")
	}
}

func TestValidateRejectsMismatchedEndTag(t *testing.T) {
	if microxml.Validate(microxml.SimpleXML, "<a>x</b>") {
		t.Fatal("mismatched end tag must be rejected")
	}
}

func TestValidateRejectsUnclosedTag(t *testing.T) {
	if microxml.Validate(microxml.SimpleXML, "<a>x") {
		t.Fatal("an element missing its end tag must be rejected")
	}
}

func TestValidateRejectsDepthOver100(t *testing.T) {
	open := ""
	for i := 0; i < 101; i++ {
		open += "<a>"
	}
	close := ""
	for i := 0; i < 101; i++ {
		close += "</a>"
	}
	if microxml.Validate(microxml.SimpleXML, open+"x"+close) {
		t.Fatal("nesting beyond the 100-deep cap must be rejected")
	}
}

func TestValidateAcceptsExactly100Deep(t *testing.T) {
	open, closeTags := "", ""
	for i := 0; i < 100; i++ {
		open += "<a>"
		closeTags = "</a>" + closeTags
	}
	if !microxml.Validate(microxml.SimpleXML, open+"x"+closeTags) {
		t.Fatal("nesting within the 100-deep cap should be accepted")
	}
}

func TestParseBuildsRealChildNodes(t *testing.T) {
	parent := &dom.Node{Kind: dom.Element}
	if !microxml.Parse(microxml.SimpleXML, "hi <b>there</b>!", parent, nil) {
		t.Fatal("Parse failed on well-formed input")
	}
	if len(parent.Children) != 3 {
		t.Fatalf("got %d children, want 3 (text, element, text)", len(parent.Children))
	}
	if parent.Children[0].Data != "hi " {
		t.Fatalf("first child = %q, want %q", parent.Children[0].Data, "hi ")
	}
	b := parent.Children[1]
	if b.Kind != dom.Element || b.Name.Local != "b" {
		t.Fatalf("second child = %+v, want element b", b)
	}
	if len(b.Children) != 1 || b.Children[0].Data != "there" {
		t.Fatalf("b's children = %+v, want a single text node %q", b.Children, "there")
	}
	if parent.Children[2].Data != "!" {
		t.Fatalf("third child = %q, want %q", parent.Children[2].Data, "!")
	}
}

func TestParseRollsBackOnFailure(t *testing.T) {
	parent := &dom.Node{Kind: dom.Element}
	parent.Children = append(parent.Children, &dom.Node{Kind: dom.Text, Data: "preexisting"})
	if microxml.Parse(microxml.SimpleXHTML, "<b>ok</b><script>bad</script>", parent, nil) {
		t.Fatal("Parse should fail when any part of the fragment is invalid")
	}
	if len(parent.Children) != 1 || parent.Children[0].Data != "preexisting" {
		t.Fatalf("parent.Children = %+v, want only the pre-existing child (rolled back)", parent.Children)
	}
}

func TestDecimalAndHexCharRefs(t *testing.T) {
	parent := &dom.Node{Kind: dom.Element}
	if !microxml.Parse(microxml.SimpleXML, "&#169; and &#xA9;", parent, nil) {
		t.Fatal("Parse failed on numeric character references")
	}
	if len(parent.Children) != 1 {
		t.Fatalf("got %d children, want 1 merged text run", len(parent.Children))
	}
	want := "© and ©"
	if parent.Children[0].Data != want {
		t.Fatalf("decoded text = %q, want %q", parent.Children[0].Data, want)
	}
}

func TestBareAmpersandIsLiteralText(t *testing.T) {
	parent := &dom.Node{Kind: dom.Element}
	if !microxml.Parse(microxml.SimpleXML, "Q&A", parent, nil) {
		t.Fatal("a bare & that doesn't open a numeric reference must be accepted as plain text")
	}
	if len(parent.Children) != 1 || parent.Children[0].Data != "Q&A" {
		t.Fatalf("got %+v, want a single text child %q", parent.Children, "Q&A")
	}
}

func TestNamedEntityStaysLiteral(t *testing.T) {
	// Named entities are out of scope for this grammar (spec.md §4.8):
	// a bare '&' is never an error, so "&copy;" parses successfully as
	// plain text rather than resolving to "©".
	parent := &dom.Node{Kind: dom.Element}
	if !microxml.Parse(microxml.SimpleXML, "&copy;", parent, nil) {
		t.Fatal("a named entity reference should parse as literal text, not fail")
	}
	if len(parent.Children) != 1 || parent.Children[0].Data != "&copy;" {
		t.Fatalf("got %+v, want the literal text %q", parent.Children, "&copy;")
	}
}

func TestOutOfRangeNumericRefStaysLiteral(t *testing.T) {
	// A numeric reference above the Unicode ceiling never decodes to a
	// rune; like any other reference the decoder declines, it falls
	// through to literal text rather than failing the parse.
	parent := &dom.Node{Kind: dom.Element}
	if !microxml.Parse(microxml.SimpleXML, "&#x110000;", parent, nil) {
		t.Fatal("an out-of-range numeric reference should parse as literal text, not fail")
	}
	if len(parent.Children) != 1 || parent.Children[0].Data != "&#x110000;" {
		t.Fatalf("got %+v, want the literal text %q", parent.Children, "&#x110000;")
	}
}

func TestLoneSurrogateRefIsReplacedWithFFFDAndWarns(t *testing.T) {
	parent := &dom.Node{Kind: dom.Element}
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	if !microxml.Parse(microxml.SimpleXML, "a&#xD800;b", parent, warn) {
		t.Fatal("a lone surrogate reference should be substituted, not fail the parse")
	}
	want := "a�b"
	if len(parent.Children) != 1 || parent.Children[0].Data != want {
		t.Fatalf("got %+v, want the single text child %q", parent.Children, want)
	}
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1 for the lone surrogate", len(warnings))
	}
}

func TestSurrogatePairIsCombinedIntoOneScalar(t *testing.T) {
	parent := &dom.Node{Kind: dom.Element}
	var warnings []string
	warn := func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	if !microxml.Parse(microxml.SimpleXML, "&#xD83D;&#xDE00;", parent, warn) {
		t.Fatal("a valid surrogate pair should parse successfully")
	}
	want := "\U0001F600"
	if len(parent.Children) != 1 || parent.Children[0].Data != want {
		t.Fatalf("got %+v, want the combined scalar %q", parent.Children, want)
	}
	if len(warnings) != 0 {
		t.Fatalf("a properly paired surrogate should not warn, got %v", warnings)
	}
}
