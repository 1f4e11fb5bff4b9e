package catalog_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/CognitoIQ/go-its/internal/catalog"
	"github.com/CognitoIQ/go-its/its"
)

func TestWritePOTThenReadPORoundTrips(t *testing.T) {
	c := catalog.New()
	c.Emit(its.ExtractedMessage{MsgID: "Hello", File: "doc.xml", Line: 3, Comment: "greeting", Marker: "doc/title"})
	c.Emit(its.ExtractedMessage{MsgContext: "menu", HaveMsgContext: true, MsgID: "File", File: "doc.xml", Line: 9, Marker: "doc/menu@label"})

	var buf bytes.Buffer
	if err := c.WritePOT(&buf); err != nil {
		t.Fatalf("WritePOT: %v", err)
	}

	pot := buf.String()
	if !strings.Contains(pot, "#. greeting") {
		t.Errorf("POT missing translator comment:\n%s", pot)
	}
	if !strings.Contains(pot, "#. marker: doc/title") {
		t.Errorf("POT missing marker comment:\n%s", pot)
	}
	if !strings.Contains(pot, "#: doc.xml:3") {
		t.Errorf("POT missing source reference:\n%s", pot)
	}
	if !strings.Contains(pot, `msgctxt "menu"`) {
		t.Errorf("POT missing msgctxt block:\n%s", pot)
	}

	parsed, err := catalog.ReadPO(strings.NewReader(pot))
	if err != nil {
		t.Fatalf("ReadPO: %v", err)
	}
	// A POT template always has an empty msgstr, so Lookup must still
	// report no translation for either entry.
	if _, ok := parsed.Lookup("", false, "Hello"); ok {
		t.Fatal("Lookup on a freshly-read POT should report no translation")
	}
	if _, ok := parsed.Lookup("menu", true, "File"); ok {
		t.Fatal("Lookup on a freshly-read POT should report no translation")
	}
}

func TestAddOverwritesExistingKeyPreservesOrder(t *testing.T) {
	c := catalog.New()
	k := catalog.Key{ID: "Hello"}
	c.Add(catalog.Entry{Key: k, Str: "Bonjour"})
	c.Add(catalog.Entry{Key: catalog.Key{ID: "Goodbye"}, Str: "Au revoir"})
	c.Add(catalog.Entry{Key: k, Str: "Salut"})

	if got, ok := c.Lookup("", false, "Hello"); !ok || got != "Salut" {
		t.Fatalf("Lookup(Hello) = (%q, %v), want (%q, true) after overwrite", got, ok, "Salut")
	}

	var buf bytes.Buffer
	c.WritePOT(&buf)
	first := strings.Index(buf.String(), "Hello")
	second := strings.Index(buf.String(), "Goodbye")
	if first == -1 || second == -1 || first > second {
		t.Fatal("re-adding an existing key must not change its original insertion position")
	}
}

func TestLookupRequiresNonEmptyMsgstr(t *testing.T) {
	c := catalog.New()
	c.Add(catalog.Entry{Key: catalog.Key{ID: "untranslated"}, Str: ""})
	if _, ok := c.Lookup("", false, "untranslated"); ok {
		t.Fatal("Lookup must not report a translation for an empty msgstr")
	}
}

func TestReadPOHandlesMsgctxtAndMultilineContinuation(t *testing.T) {
	po := "" +
		"#. a note\n" +
		"msgctxt \"button\"\n" +
		"msgid \"\"\n" +
		"\"Save \"\n" +
		"\"and close\"\n" +
		"msgstr \"Enregistrer et fermer\"\n\n"

	c, err := catalog.ReadPO(strings.NewReader(po))
	if err != nil {
		t.Fatalf("ReadPO: %v", err)
	}
	got, ok := c.Lookup("button", true, "Save and close")
	if !ok {
		t.Fatal("Lookup should find the entry assembled from continuation lines")
	}
	if got != "Enregistrer et fermer" {
		t.Fatalf("msgstr = %q, want %q", got, "Enregistrer et fermer")
	}
}

func TestReadPORejectsUnexpectedLine(t *testing.T) {
	_, err := catalog.ReadPO(strings.NewReader("this is not a PO line\n"))
	if err == nil {
		t.Fatal("ReadPO should reject a line that matches no known PO field")
	}
}
