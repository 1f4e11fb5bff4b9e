package its

import "github.com/CognitoIQ/go-its/dom"

// A ValuePool is a growable array of ValueMaps addressed by 1-based
// index; index 0 means "no values yet". It is the C1 side table
// spec.md's design notes call for: document nodes hold a small integer
// slot (dom.Node.Slot) into the pool rather than carrying a ValueMap
// directly, so the DOM and the ITS engine stay decoupled.
//
// A ValuePool is created with its RuleSet (NewRuleSet) and is freed
// with the RuleSet; it must be reset (or replaced) between
// documents, since growth is append-only and indices never shift
// while the pool lives.
type ValuePool struct {
	maps []ValueMap // maps[0] is unused filler, so index 0 means "none"
}

// NewValuePool returns an empty pool.
func NewValuePool() *ValuePool {
	return &ValuePool{maps: make([]ValueMap, 1)}
}

// Alloc appends a new empty ValueMap and returns its 1-based index.
func (p *ValuePool) Alloc() int {
	p.maps = append(p.maps, ValueMap{})
	return len(p.maps) - 1
}

// At returns the ValueMap at index, or nil if index is 0 (or out of
// range, which should not happen for indices this package produced).
func (p *ValuePool) At(index int) *ValueMap {
	if index <= 0 || index >= len(p.maps) {
		return nil
	}
	return &p.maps[index]
}

// Reset clears the pool back to empty, for reuse across documents
// without reallocating a new RuleSet.
func (p *ValuePool) Reset() {
	p.maps = p.maps[:1]
}

// MergeInto merges values into the ValueMap addressed by n's slot,
// allocating a slot first if n does not have one yet.
func (p *ValuePool) MergeInto(n *dom.Node, values *ValueMap) {
	if n.Slot() == 0 {
		n.SetSlot(p.Alloc())
	}
	p.At(n.Slot()).Merge(values)
}

// Get returns the ValueMap assigned to n, or nil if n has never
// acquired one.
func (p *ValuePool) Get(n *dom.Node) *ValueMap {
	return p.At(n.Slot())
}
