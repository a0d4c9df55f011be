package flatten

import (
	"iter"

	"github.com/extractkit/blueprint/schema"
	"github.com/speakeasy-api/openapi/sequencedmap"
)

// FieldSet is the ordered path→terminal collection produced by Flatten.
// It is the one artifact an external optimization step is handed and is
// allowed to mutate, and only the non-path portions of each terminal: the
// path set itself is part of the flatten/unflatten contract.
//
// Entries are usually Leaf nodes; incompletely specified schema nodes
// survive here as opaque Object/Array terminals (see Flatten).
type FieldSet struct {
	m *sequencedmap.Map[string, *schema.Node]
}

// NewFieldSet returns an empty field set.
func NewFieldSet() *FieldSet {
	return &FieldSet{m: sequencedmap.New[string, *schema.Node]()}
}

// Set adds or replaces the terminal stored under path, preserving first
// insertion order.
func (fs *FieldSet) Set(path string, node *schema.Node) {
	if fs.m == nil {
		fs.m = sequencedmap.New[string, *schema.Node]()
	}
	fs.m.Set(path, node)
}

// Get returns the terminal stored under path.
func (fs *FieldSet) Get(path string) (*schema.Node, bool) {
	if fs == nil || fs.m == nil {
		return nil, false
	}
	return fs.m.Get(path)
}

// Len reports the number of entries.
func (fs *FieldSet) Len() int {
	if fs == nil || fs.m == nil {
		return 0
	}
	return fs.m.Len()
}

// All iterates entries in order.
func (fs *FieldSet) All() iter.Seq2[string, *schema.Node] {
	return func(yield func(string, *schema.Node) bool) {
		if fs == nil || fs.m == nil {
			return
		}
		for path, node := range fs.m.All() {
			if !yield(path, node) {
				return
			}
		}
	}
}

// Paths returns the path set in iteration order.
func (fs *FieldSet) Paths() []string {
	out := make([]string, 0, fs.Len())
	for path := range fs.All() {
		out = append(out, path)
	}
	return out
}
