// Package schema models blueprint schemas as explicit node trees.
//
// A blueprint schema is a restricted JSON-Schema profile: objects compose
// fields via "properties", arrays describe their element type via "items",
// and every terminal field carries an extraction instruction. The Node type
// is a tagged variant over those three shapes so traversal code can switch
// exhaustively instead of sniffing map keys.
package schema

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"
)

// Kind identifies the shape of a Node.
type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindLeaf:
		return "leaf"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is a single schema node. Exactly one of the shape fields is
// meaningful for a given Kind: Fields for KindObject, Items for KindArray,
// Leaf for KindLeaf.
//
// An Object with a nil or empty Fields map, or an Array with nil Items, is
// an incompletely specified node. Such nodes are legal inputs: the
// flattener treats them as opaque terminals rather than failing.
type Node struct {
	Kind Kind

	// Fields holds an Object's named children in declaration order.
	Fields *sequencedmap.Map[string, *Node]

	// Items describes an Array's element type.
	Items *Node

	// Leaf carries a terminal field's payload.
	Leaf *Leaf

	// Raw is the original document mapping this node was parsed from, kept
	// so incompletely specified nodes can be re-emitted verbatim. Nil for
	// programmatically built nodes.
	Raw *yaml.Node
}

// Leaf is the payload of a terminal field.
type Leaf struct {
	// Name is the field name the leaf was declared under. It is only
	// consulted when a leaf is the root of a schema (a degenerate flat
	// schema of one field).
	Name string

	Type          string
	InferenceType string
	Instruction   string

	// Extra preserves any additional keys from the source document
	// verbatim, in declaration order.
	Extra *sequencedmap.Map[string, *yaml.Node]
}

// NewObject returns an empty Object node.
func NewObject() *Node {
	return &Node{
		Kind:   KindObject,
		Fields: sequencedmap.New[string, *Node](),
	}
}

// NewArray returns an Array node with the given element type.
func NewArray(items *Node) *Node {
	return &Node{Kind: KindArray, Items: items}
}

// NewLeaf returns a Leaf node with the given payload.
func NewLeaf(name, typ, inferenceType, instruction string) *Node {
	return &Node{
		Kind: KindLeaf,
		Leaf: &Leaf{
			Name:          name,
			Type:          typ,
			InferenceType: inferenceType,
			Instruction:   instruction,
		},
	}
}

// SetField adds or replaces a named child on an Object node.
func (n *Node) SetField(name string, child *Node) {
	if n.Fields == nil {
		n.Fields = sequencedmap.New[string, *Node]()
	}
	n.Fields.Set(name, child)
}

// Field looks up a named child on an Object node.
func (n *Node) Field(name string) (*Node, bool) {
	if n == nil || n.Fields == nil {
		return nil, false
	}
	return n.Fields.Get(name)
}

// FieldLen reports the number of declared fields on an Object node.
func (n *Node) FieldLen() int {
	if n == nil || n.Fields == nil {
		return 0
	}
	return n.Fields.Len()
}

// Clone returns a deep copy of the node tree. Extra metadata yaml nodes are
// copied so mutations on the clone never leak back into the source tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind, Raw: cloneYAMLNode(n.Raw)}
	if n.Fields != nil {
		out.Fields = sequencedmap.New[string, *Node]()
		for name, child := range n.Fields.All() {
			out.Fields.Set(name, child.Clone())
		}
	}
	if n.Items != nil {
		out.Items = n.Items.Clone()
	}
	if n.Leaf != nil {
		leaf := &Leaf{
			Name:          n.Leaf.Name,
			Type:          n.Leaf.Type,
			InferenceType: n.Leaf.InferenceType,
			Instruction:   n.Leaf.Instruction,
		}
		if n.Leaf.Extra != nil {
			leaf.Extra = sequencedmap.New[string, *yaml.Node]()
			for k, v := range n.Leaf.Extra.All() {
				leaf.Extra.Set(k, cloneYAMLNode(v))
			}
		}
		out.Leaf = leaf
	}
	return out
}

func cloneYAMLNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	out := *n
	if len(n.Content) > 0 {
		out.Content = make([]*yaml.Node, len(n.Content))
		for i, c := range n.Content {
			out.Content[i] = cloneYAMLNode(c)
		}
	}
	return &out
}

// Summary returns a compact one-line description of a node's shape, for
// logs and CLI output. It truncates wide objects and never recurses more
// than a couple of levels.
func Summary(n *Node) string {
	return summary(n, 2)
}

func summary(n *Node, depth int) string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindLeaf:
		if n.Leaf == nil || n.Leaf.Type == "" {
			return "leaf"
		}
		return n.Leaf.Type
	case KindArray:
		if n.Items == nil {
			return "array[?]"
		}
		if depth <= 0 {
			return "array[...]"
		}
		return "array[" + summary(n.Items, depth-1) + "]"
	case KindObject:
		if n.FieldLen() == 0 {
			return "object{}"
		}
		keys := make([]string, 0, n.FieldLen())
		for k := range n.Fields.All() {
			keys = append(keys, k)
		}
		const limit = 5
		if len(keys) > limit {
			extra := len(keys) - limit
			keys = append(keys[:limit], fmt.Sprintf("+%d", extra))
		}
		return "object{" + strings.Join(keys, ",") + "}"
	default:
		return n.Kind.String()
	}
}
