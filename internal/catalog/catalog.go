// Package catalog reads and writes the subset of the gettext PO/POT
// file format the its package's lookup/emit boundary needs: entries
// keyed by (msgctxt, msgid), each with one msgstr and an optional
// block of extracted and translator comments.
//
// No example repository in this module's corpus carries a PO-format
// library, and gettext's own subtleties (plural forms, fuzzy markers,
// .mo compilation) are out of scope for a boundary collaborator whose
// only job is to feed its.LookupFunc and consume its.EmitFunc. The
// format is plain, line-oriented text, so a small hand-rolled
// reader/writer is used instead of adopting an unrelated dependency.
package catalog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CognitoIQ/go-its/its"
)

// Key identifies a catalog entry the way its.LookupFunc does.
type Key struct {
	Context     string
	HaveContext bool
	ID          string
}

// Entry is one message in a catalog, with its translation and the
// commentary an extract pass attached to it.
type Entry struct {
	Key
	Str     string
	File    string
	Line    int
	Comment string
	Marker  string
}

// Catalog is an in-memory set of entries, indexed for lookup and kept
// in insertion order for writing.
type Catalog struct {
	order []Key
	byKey map[Key]*Entry
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{byKey: make(map[Key]*Entry)}
}

// Add appends or overwrites the entry for e.Key, preserving insertion
// order for new keys.
func (c *Catalog) Add(e Entry) {
	if _, ok := c.byKey[e.Key]; !ok {
		c.order = append(c.order, e.Key)
	}
	stored := e
	c.byKey[e.Key] = &stored
}

// Lookup satisfies its.LookupFunc.
func (c *Catalog) Lookup(msgctxt string, haveMsgctxt bool, msgid string) (string, bool) {
	e, ok := c.byKey[Key{Context: msgctxt, HaveContext: haveMsgctxt, ID: msgid}]
	if !ok || e.Str == "" {
		return "", false
	}
	return e.Str, true
}

// Emit adapts its.EmitFunc into a Catalog entry with an empty msgstr,
// suitable for building a POT template from an extraction pass.
func (c *Catalog) Emit(m its.ExtractedMessage) {
	c.Add(Entry{
		Key:     Key{Context: m.MsgContext, HaveContext: m.HaveMsgContext, ID: m.MsgID},
		File:    m.File,
		Line:    m.Line,
		Comment: m.Comment,
		Marker:  m.Marker,
	})
}

// WritePOT writes c as a gettext POT template: one block per entry, in
// insertion order, with translator comments ("#. ") and a source
// reference ("#: file:line") ahead of msgctxt/msgid/an empty msgstr.
func (c *Catalog) WritePOT(w io.Writer) error {
	for _, k := range c.order {
		e := c.byKey[k]
		if err := writeComments(w, e); err != nil {
			return err
		}
		if e.HaveContext {
			if _, err := fmt.Fprintf(w, "msgctxt %s\n", quotePO(e.Context)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "msgid %s\nmsgstr \"\"\n\n", quotePO(e.ID)); err != nil {
			return err
		}
	}
	return nil
}

func writeComments(w io.Writer, e *Entry) error {
	if e.Comment != "" {
		for _, line := range strings.Split(e.Comment, "\n") {
			if _, err := fmt.Fprintf(w, "#. %s\n", line); err != nil {
				return err
			}
		}
	}
	if e.Marker != "" {
		if _, err := fmt.Fprintf(w, "#. marker: %s\n", e.Marker); err != nil {
			return err
		}
	}
	if e.File != "" {
		if _, err := fmt.Fprintf(w, "#: %s:%d\n", e.File, e.Line); err != nil {
			return err
		}
	}
	return nil
}

// ReadPO parses r as a gettext PO file and returns a Catalog of its
// entries, keyed for lookup.
func ReadPO(r io.Reader) (*Catalog, error) {
	c := New()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)

	var cur Entry
	var haveID bool
	field := ""

	flush := func() {
		if haveID {
			c.Add(cur)
		}
		cur = Entry{}
		haveID = false
		field = ""
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "#"):
			// Comments are not round-tripped back into msgctxt/msgid
			// lookups; ReadPO only needs the translated strings.
		case strings.HasPrefix(line, "msgctxt "):
			s, err := unquotePO(strings.TrimPrefix(line, "msgctxt "))
			if err != nil {
				return nil, err
			}
			cur.Context, cur.HaveContext = s, true
			field = "msgctxt"
		case strings.HasPrefix(line, "msgid "):
			s, err := unquotePO(strings.TrimPrefix(line, "msgid "))
			if err != nil {
				return nil, err
			}
			cur.ID = s
			haveID = true
			field = "msgid"
		case strings.HasPrefix(line, "msgstr "):
			s, err := unquotePO(strings.TrimPrefix(line, "msgstr "))
			if err != nil {
				return nil, err
			}
			cur.Str = s
			field = "msgstr"
		case strings.HasPrefix(line, `"`):
			s, err := unquotePO(line)
			if err != nil {
				return nil, err
			}
			switch field {
			case "msgctxt":
				cur.Context += s
			case "msgid":
				cur.ID += s
			case "msgstr":
				cur.Str += s
			}
		default:
			return nil, fmt.Errorf("catalog: unexpected line %q", line)
		}
	}
	flush()
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return c, nil
}

func quotePO(s string) string {
	return strconv.Quote(s)
}

func unquotePO(s string) (string, error) {
	return strconv.Unquote(s)
}
