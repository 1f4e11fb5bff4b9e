package its

// A Value is a single (name, value) pair assigned by a rule. Names are
// drawn from the small closed set spec.md §3 names: translate,
// locNote, locNotePointer, locNoteType, withinText, space,
// contextPointer, textPointer, escape, unescape-if.
type Value struct {
	Name  string
	Value string
}

// A ValueMap is an ordered list of Values. Lookup is by linear scan;
// Set replaces an existing entry in place or appends a new one. No two
// entries in a ValueMap share a Name.
type ValueMap struct {
	values []Value
}

// Get returns the value assigned to name, if any.
func (m *ValueMap) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, v := range m.values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// Set assigns value to name, replacing any existing entry in place or
// appending a new one at the end.
func (m *ValueMap) Set(name, value string) {
	for i, v := range m.values {
		if v.Name == name {
			m.values[i].Value = value
			return
		}
	}
	m.values = append(m.values, Value{Name: name, Value: value})
}

// Merge applies other's entries onto m: a same-named entry is
// overwritten in place, keeping m's entry order; an unseen name is
// appended, in other's order. This is the "merge-with-replace" combinator
// spec.md §4.1 specifies for combining rule evaluator results across
// an ordered RuleSet.
func (m *ValueMap) Merge(other *ValueMap) {
	if other == nil {
		return
	}
	for _, v := range other.values {
		m.Set(v.Name, v.Value)
	}
}

// Names returns the set of names present, for tests that need
// name-set equality (spec.md §8 property 3) rather than full ordered
// equality.
func (m *ValueMap) Names() []string {
	if m == nil {
		return nil
	}
	names := make([]string, len(m.values))
	for i, v := range m.values {
		names[i] = v.Name
	}
	return names
}

// Equal reports whether m and other assign the same (name, value)
// pairs, regardless of order.
func (m *ValueMap) Equal(other *ValueMap) bool {
	if m.Len() != other.Len() {
		return false
	}
	for _, v := range m.values {
		ov, ok := other.Get(v.Name)
		if !ok || ov != v.Value {
			return false
		}
	}
	return true
}

// Len returns the number of entries in m.
func (m *ValueMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.values)
}
