package descriptor

// Descriptor is a propagatable, group/name-keyed key-value pair attached
// to an event (spec.md §3, §4.4). DescriptorCode and DescriptorType are
// caller-defined classification tags (e.g. a UI hint or a boundary-schema
// discriminator); the core only interprets Group/Name/Value/Propagate.
type Descriptor struct {
	Group          string
	Name           string
	DescriptorCode string
	DescriptorType string
	Value          string
	Propagate      bool
	// Expression holds the textual expression that produced Value, when
	// the descriptor's value is computed rather than literal. Empty for
	// literal descriptors.
	Expression string
}

// Key identifies a descriptor's propagation slot.
type Key struct {
	Group string
	Name  string
}

// Table tracks the current per-group last-writer-wins descriptor view as
// events are processed in emission order, and produces immutable
// snapshots for each amortization element (spec.md §3 invariant 5).
//
// This is the "stack of flat maps" design note §9 calls for: a single
// flat map keyed by (group, name), overwritten in place by each
// propagating descriptor, with non-propagating descriptors applied only
// to the current snapshot and then discarded.
type Table struct {
	view map[Key]Descriptor
}

// NewTable returns an empty descriptor table.
func NewTable() *Table {
	return &Table{view: make(map[Key]Descriptor)}
}

// Apply merges descs into the table ahead of taking a Snapshot for the
// amortization elements this event produces. Descriptors with
// Propagate=true become the new last writer for their (group, name) slot
// and remain visible to every later element until overridden; descriptors
// with Propagate=false are folded into the snapshot this call returns but
// never written into the persistent view.
func (t *Table) Apply(descs []Descriptor) Snapshot {
	merged := make(map[Key]Descriptor, len(t.view)+len(descs))
	for k, v := range t.view {
		merged[k] = v
	}
	for _, d := range descs {
		key := Key{Group: d.Group, Name: d.Name}
		merged[key] = d
		if d.Propagate {
			t.view[key] = d
		}
	}
	return Snapshot{entries: merged}
}

// Lookup returns the descriptor currently visible for (group, name) in
// the table's persistent (propagated) view, independent of any pending
// non-propagating override.
func (t *Table) Lookup(group, name string) (Descriptor, bool) {
	d, ok := t.view[Key{Group: group, Name: name}]
	return d, ok
}

// Snapshot is the immutable descriptor view carried by one amortization
// element.
type Snapshot struct {
	entries map[Key]Descriptor
}

// Lookup returns the descriptor visible at this snapshot for (group,
// name).
func (s Snapshot) Lookup(group, name string) (Descriptor, bool) {
	d, ok := s.entries[Key{Group: group, Name: name}]
	return d, ok
}

// All returns every descriptor visible at this snapshot, in no
// particular order.
func (s Snapshot) All() []Descriptor {
	out := make([]Descriptor, 0, len(s.entries))
	for _, d := range s.entries {
		out = append(out, d)
	}
	return out
}

// Equal reports whether s and other carry the same descriptor view,
// entry for entry. Used by the compressor (C8) to detect a
// descriptor-change boundary between two otherwise-mergeable elements.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s.entries) != len(other.entries) {
		return false
	}
	for k, v := range s.entries {
		ov, ok := other.entries[k]
		if !ok || ov != v {
			return false
		}
	}
	return true
}
