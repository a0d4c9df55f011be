package flatten

import (
	"github.com/extractkit/blueprint/schema"
)

// Entry is one Mapping record: how to redescend from the schema root to a
// flattened terminal.
type Entry struct {
	// Crumb is the structural route to the terminal.
	Crumb Breadcrumb

	// Opaque marks terminals that are not fully typed leaves: an object
	// with no field mapping, an array with no element type, or a node cut
	// off by the depth guard. Opaque terminals pass through the round trip
	// untouched.
	Opaque bool
}

// Mapping records, per flattened path, the breadcrumb needed to rebuild the
// original shape. It is built once by Flatten, consumed by Unflatten, and
// never mutated in between; a Mapping is only meaningful together with the
// FieldSet from the same Flatten call.
type Mapping map[string]Entry

// Options configures flattening.
type Options struct {
	// MaxDepth bounds the number of structural steps to any terminal.
	// Nodes deeper than this degrade to opaque terminals instead of being
	// descended into.
	MaxDepth int
}

// DefaultOptions returns the default flattening configuration.
func DefaultOptions() Options {
	return Options{
		MaxDepth: 1000,
	}
}

// Flatten walks a schema tree depth-first in declaration order and returns
// the flat field collection plus the mapping needed to reverse the walk.
//
// The input tree is never mutated; terminals are deep-copied into the
// FieldSet so the caller may rewrite their payloads freely. Malformed
// structure never fails: an object without fields or an array without an
// element type is emitted as-is under its accumulated path and flagged
// opaque in the mapping, whatever depth it occurs at.
//
// A root that is itself a leaf flattens to a single entry under the leaf's
// own field name with an empty breadcrumb.
func Flatten(root *schema.Node) (*FieldSet, Mapping) {
	return FlattenWithOptions(root, DefaultOptions())
}

// frame is one pending node on the traversal work list.
type frame struct {
	node  *schema.Node
	path  string
	crumb Breadcrumb
}

// FlattenWithOptions is Flatten with explicit options. Traversal uses an
// explicit work list rather than recursion, so input depth is bounded by
// Options.MaxDepth, not by the goroutine stack.
func FlattenWithOptions(root *schema.Node, opts Options) (*FieldSet, Mapping) {
	fields := NewFieldSet()
	mapping := make(Mapping)
	if root == nil {
		return fields, mapping
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultOptions().MaxDepth
	}

	// LIFO work list; children are pushed in reverse so they pop in
	// declaration order and the emitted field order is deterministic.
	work := make([]frame, 0, 64)

	if root.Kind == schema.KindLeaf {
		name := ""
		if root.Leaf != nil {
			name = root.Leaf.Name
		}
		emit(fields, mapping, name, nil, root, false)
		return fields, mapping
	}
	work = append(work, frame{node: root, path: "", crumb: nil})

	for len(work) > 0 {
		f := work[len(work)-1]
		work = work[:len(work)-1]

		if len(f.crumb) >= opts.MaxDepth {
			emit(fields, mapping, f.path, f.crumb, f.node, true)
			continue
		}

		switch f.node.Kind {
		case schema.KindLeaf:
			emit(fields, mapping, f.path, f.crumb, f.node, false)

		case schema.KindObject:
			if f.node.FieldLen() == 0 {
				emit(fields, mapping, f.path, f.crumb, f.node, true)
				continue
			}
			children := make([]frame, 0, f.node.FieldLen())
			for name, child := range f.node.Fields.All() {
				children = append(children, frame{
					node:  child,
					path:  joinPath(f.path, name),
					crumb: f.crumb.push(Step{Kind: StepField, Field: name}),
				})
			}
			for i := len(children) - 1; i >= 0; i-- {
				work = append(work, children[i])
			}

		case schema.KindArray:
			if f.node.Items == nil {
				emit(fields, mapping, f.path, f.crumb, f.node, true)
				continue
			}
			work = append(work, frame{
				node:  f.node.Items,
				path:  f.path + "[*]",
				crumb: f.crumb.push(Step{Kind: StepElem}),
			})

		default:
			// Unknown kind: preserve rather than drop.
			emit(fields, mapping, f.path, f.crumb, f.node, true)
		}
	}

	return fields, mapping
}

func emit(fields *FieldSet, mapping Mapping, path string, crumb Breadcrumb, node *schema.Node, opaque bool) {
	fields.Set(path, node.Clone())
	mapping[path] = Entry{Crumb: crumb, Opaque: opaque}
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
