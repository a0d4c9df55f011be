package flatten

import (
	"errors"
	"fmt"

	"github.com/extractkit/blueprint/schema"
)

var (
	// ErrPathNotMapped reports a field-set path with no mapping entry. This
	// is caller misuse (a field set paired with a mapping from a different
	// Flatten call), so it is surfaced loudly instead of producing a
	// partial tree.
	ErrPathNotMapped = errors.New("path has no mapping entry")

	// ErrMappingConflict reports two breadcrumbs that disagree about the
	// structure at the same position, which cannot happen for a mapping and
	// field set produced by one Flatten call.
	ErrMappingConflict = errors.New("breadcrumbs conflict at position")
)

// Unflatten rebuilds a nested schema from a flat field collection and the
// mapping produced by the Flatten call that created it.
//
// Each entry's breadcrumb is replayed from an initially empty root,
// creating intermediate Object/Array nodes on demand; intermediates shared
// by several breadcrumbs are created once and reused. Within a rebuilt
// object, fields appear in the order their breadcrumbs are first
// encountered in the field set's iteration order.
//
// The accumulator is local to this call: repeated and concurrent
// unflattening of unrelated schemas needs no synchronization.
func Unflatten(fields *FieldSet, mapping Mapping) (*schema.Node, error) {
	var root *schema.Node
	for path, node := range fields.All() {
		entry, ok := mapping[path]
		if !ok {
			return nil, fmt.Errorf("unflatten %q: %w", path, ErrPathNotMapped)
		}
		next, err := place(root, entry.Crumb, node)
		if err != nil {
			return nil, fmt.Errorf("unflatten %q: %w", path, err)
		}
		root = next
	}
	if root == nil {
		// Empty field set: an empty object is the only shape that carries
		// no fields.
		root = schema.NewObject()
	}
	return root, nil
}

// place replays one breadcrumb against the accumulator, returning the
// (possibly newly created) root.
func place(root *schema.Node, crumb Breadcrumb, terminal *schema.Node) (*schema.Node, error) {
	if len(crumb) == 0 {
		if root != nil {
			return nil, fmt.Errorf("root already placed: %w", ErrMappingConflict)
		}
		return terminal, nil
	}

	if root == nil {
		root = containerFor(crumb[0])
	} else if root.Kind != kindFor(crumb[0]) {
		return nil, fmt.Errorf("root is %s, step needs %s: %w", root.Kind, kindFor(crumb[0]), ErrMappingConflict)
	}

	cur := root
	for i, step := range crumb {
		last := i == len(crumb)-1

		switch step.Kind {
		case StepField:
			if cur.Kind != schema.KindObject {
				return nil, fmt.Errorf("step %d: %s is not an object: %w", i, cur.Kind, ErrMappingConflict)
			}
			if last {
				if _, exists := cur.Field(step.Field); exists {
					return nil, fmt.Errorf("step %d: field %q already placed: %w", i, step.Field, ErrMappingConflict)
				}
				cur.SetField(step.Field, terminal)
				continue
			}
			child, ok := cur.Field(step.Field)
			if !ok {
				child = containerFor(crumb[i+1])
				cur.SetField(step.Field, child)
			} else if child.Kind != kindFor(crumb[i+1]) {
				return nil, fmt.Errorf("step %d: field %q is %s, step needs %s: %w",
					i, step.Field, child.Kind, kindFor(crumb[i+1]), ErrMappingConflict)
			}
			cur = child

		case StepElem:
			if cur.Kind != schema.KindArray {
				return nil, fmt.Errorf("step %d: %s is not an array: %w", i, cur.Kind, ErrMappingConflict)
			}
			if last {
				if cur.Items != nil {
					return nil, fmt.Errorf("step %d: element type already placed: %w", i, ErrMappingConflict)
				}
				cur.Items = terminal
				continue
			}
			if cur.Items == nil {
				cur.Items = containerFor(crumb[i+1])
			} else if cur.Items.Kind != kindFor(crumb[i+1]) {
				return nil, fmt.Errorf("step %d: element type is %s, step needs %s: %w",
					i, cur.Items.Kind, kindFor(crumb[i+1]), ErrMappingConflict)
			}
			cur = cur.Items

		default:
			return nil, fmt.Errorf("step %d: unknown step kind %d: %w", i, int(step.Kind), ErrMappingConflict)
		}
	}
	return root, nil
}

// containerFor creates the intermediate node a step descends into.
func containerFor(s Step) *schema.Node {
	if s.Kind == StepElem {
		return &schema.Node{Kind: schema.KindArray}
	}
	return schema.NewObject()
}

func kindFor(s Step) schema.Kind {
	if s.Kind == StepElem {
		return schema.KindArray
	}
	return schema.KindObject
}
