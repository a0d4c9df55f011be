// Package flatten converts nested blueprint schemas to flat path→field
// collections and back.
//
// Flattening walks a schema tree and emits one entry per terminal field
// under a canonical dotted path ("customer.name", "line_items[*].price"),
// together with a Mapping that records the structural steps taken to reach
// each terminal. After an external step has rewritten the flat fields'
// instructions, Unflatten replays the mapping to rebuild a tree with the
// original shape and the updated payloads.
package flatten

import "strings"

// StepKind tags one structural step of a breadcrumb.
type StepKind int

const (
	// StepField descends into a named object field.
	StepField StepKind = iota
	// StepElem descends into an array's element type.
	StepElem
)

func (k StepKind) String() string {
	switch k {
	case StepField:
		return "field"
	case StepElem:
		return "elem"
	default:
		return "unknown"
	}
}

// Step is a single descent recorded while flattening.
type Step struct {
	Kind StepKind

	// Field is the object field name; empty for StepElem.
	Field string
}

// Breadcrumb is the ordered list of steps from the schema root to one
// terminal. It is the authoritative record for unflattening; the string
// path is derived from it, never the other way around, so field names
// containing path punctuation cannot corrupt reconstruction.
type Breadcrumb []Step

// push returns a new breadcrumb extended by one step. The receiver is left
// untouched; breadcrumbs are shared between work-list frames.
func (b Breadcrumb) push(s Step) Breadcrumb {
	out := make(Breadcrumb, len(b), len(b)+1)
	copy(out, b)
	return append(out, s)
}

// Path renders the breadcrumb in canonical dotted notation. Array descent
// appends the fixed literal "[*]" to the owning field: the marker is a
// wildcard over element instances because the schema describes the element
// type, not concrete elements.
func (b Breadcrumb) Path() string {
	var sb strings.Builder
	for _, s := range b {
		switch s.Kind {
		case StepField:
			if sb.Len() > 0 {
				sb.WriteByte('.')
			}
			sb.WriteString(s.Field)
		case StepElem:
			sb.WriteString("[*]")
		}
	}
	return sb.String()
}

// ParsePath parses canonical dotted notation back into a breadcrumb. It is
// the exact inverse of Breadcrumb.Path for every path the flattener can
// produce; paths whose field names themselves contain "." or "[*]" are not
// representable in the string form, which is why Mapping stores breadcrumbs
// rather than strings.
func ParsePath(path string) Breadcrumb {
	if path == "" {
		return nil
	}
	var b Breadcrumb
	for _, seg := range strings.Split(path, ".") {
		elems := 0
		for strings.HasSuffix(seg, "[*]") {
			elems++
			seg = seg[:len(seg)-len("[*]")]
		}
		if seg != "" {
			b = append(b, Step{Kind: StepField, Field: seg})
		}
		for i := 0; i < elems; i++ {
			b = append(b, Step{Kind: StepElem})
		}
	}
	return b
}
