package schema

import (
	"fmt"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"
)

// Definitions holds a document's "definitions" section as raw yaml nodes,
// keyed by definition name, for resolving "#/definitions/..." references.
type Definitions struct {
	m *sequencedmap.Map[string, *yaml.Node]
}

// NewDefinitions builds a Definitions table from the raw "definitions"
// mapping node. A nil node yields an empty, usable table.
func NewDefinitions(node *yaml.Node) Definitions {
	defs := Definitions{m: sequencedmap.New[string, *yaml.Node]()}
	if node == nil || node.Kind != yaml.MappingNode {
		return defs
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		defs.m.Set(node.Content[i].Value, node.Content[i+1])
	}
	return defs
}

// Resolve looks up a "#/definitions/<name>" reference. Percent-encoded
// spaces in the name are handled, as some authoring tools emit them.
func (d Definitions) Resolve(ref string) (*yaml.Node, bool) {
	const prefix = "#/definitions/"
	if d.m == nil || !strings.HasPrefix(ref, prefix) {
		return nil, false
	}
	name := strings.ReplaceAll(strings.TrimPrefix(ref, prefix), "%20", " ")
	return d.m.Get(name)
}

// Len reports the number of definitions in the table.
func (d Definitions) Len() int {
	if d.m == nil {
		return 0
	}
	return d.m.Len()
}

// ParseProperties decodes a document's "properties" mapping into the root
// Object node. Field order follows the document.
func ParseProperties(props *yaml.Node, defs Definitions) (*Node, error) {
	root := NewObject()
	if props == nil {
		return root, nil
	}
	if props.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("properties: expected mapping, got %s", yamlKindName(props.Kind))
	}
	for i := 0; i+1 < len(props.Content); i += 2 {
		name := props.Content[i].Value
		child, err := ParseNode(name, props.Content[i+1], defs)
		if err != nil {
			return nil, fmt.Errorf("properties.%s: %w", name, err)
		}
		root.SetField(name, child)
	}
	return root, nil
}

// ParseNode decodes a single field definition from the blueprint dialect:
//
//   - "type: object" with "properties" descends into a named-field Object
//   - "type: array" whose items are an object with properties descends into
//     an Array of that object; any other array stays a single Leaf holding
//     the whole definition, since the instruction sits on the array itself
//   - "$ref" into "#/definitions/" is resolved and inlined when the target
//     has properties
//   - everything else is a Leaf; type/inferenceType/instruction are lifted
//     and all remaining keys are preserved verbatim
//
// Incompletely specified composites (an object with no properties key, an
// array with no items key) still parse to their declared kind with the
// source mapping retained, so downstream traversal can degrade gracefully
// instead of failing.
func ParseNode(name string, def *yaml.Node, defs Definitions) (*Node, error) {
	def = unalias(def)
	if def == nil || def.Kind != yaml.MappingNode {
		// Not a field definition at all. Keep it verbatim as an opaque leaf
		// so the document survives a round trip untouched.
		leaf := NewLeaf(name, "", "", "")
		leaf.Raw = def
		return leaf, nil
	}

	if ref := mapScalar(def, "$ref"); ref != "" {
		if target, ok := defs.Resolve(ref); ok {
			target = unalias(target)
			if props := mapValue(target, "properties"); props != nil {
				return parseObject(def, props, defs)
			}
		}
		// Unresolvable or propertyless reference: opaque leaf.
		return parseLeaf(name, def), nil
	}

	switch mapScalar(def, "type") {
	case "object":
		props := mapValue(def, "properties")
		if props == nil {
			n := &Node{Kind: KindObject, Raw: def}
			return n, nil
		}
		return parseObject(def, props, defs)

	case "array":
		items := unalias(mapValue(def, "items"))
		if items == nil {
			n := &Node{Kind: KindArray, Raw: def}
			return n, nil
		}
		if items.Kind == yaml.MappingNode && mapScalar(items, "type") == "object" && mapValue(items, "properties") != nil {
			elem, err := ParseNode(name, items, defs)
			if err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
			n := NewArray(elem)
			n.Raw = def
			return n, nil
		}
		// Array of scalars: one flat field describing the whole array.
		return parseLeaf(name, def), nil

	default:
		return parseLeaf(name, def), nil
	}
}

func parseObject(def, props *yaml.Node, defs Definitions) (*Node, error) {
	props = unalias(props)
	if props.Kind != yaml.MappingNode {
		n := &Node{Kind: KindObject, Raw: def}
		return n, nil
	}
	n := NewObject()
	n.Raw = def
	for i := 0; i+1 < len(props.Content); i += 2 {
		field := props.Content[i].Value
		child, err := ParseNode(field, props.Content[i+1], defs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		n.SetField(field, child)
	}
	return n, nil
}

func parseLeaf(name string, def *yaml.Node) *Node {
	leaf := &Leaf{Name: name}
	n := &Node{Kind: KindLeaf, Leaf: leaf, Raw: def}
	for i := 0; i+1 < len(def.Content); i += 2 {
		key := def.Content[i].Value
		val := def.Content[i+1]
		switch key {
		case "type":
			leaf.Type = val.Value
		case "inferenceType":
			leaf.InferenceType = val.Value
		case "instruction":
			leaf.Instruction = val.Value
		default:
			if leaf.Extra == nil {
				leaf.Extra = sequencedmap.New[string, *yaml.Node]()
			}
			leaf.Extra.Set(key, val)
		}
	}
	return n
}

// EncodeProperties renders the root Object node back into a "properties"
// mapping. It is the inverse of ParseProperties up to leaf key ordering,
// which is normalized to type, inferenceType, instruction, extras.
func EncodeProperties(root *Node) *yaml.Node {
	props := newMappingNode()
	if root == nil || root.Fields == nil {
		return props
	}
	for name, child := range root.Fields.All() {
		appendPair(props, name, EncodeNode(child))
	}
	return props
}

// EncodeNode renders a node back into its document form.
func EncodeNode(n *Node) *yaml.Node {
	if n == nil {
		return nullNode()
	}
	switch n.Kind {
	case KindObject:
		if n.Fields == nil {
			if n.Raw != nil {
				return cloneYAMLNode(n.Raw)
			}
			m := newMappingNode()
			appendPair(m, "type", strNode("object"))
			return m
		}
		m := newMappingNode()
		appendPair(m, "type", strNode("object"))
		props := newMappingNode()
		for name, child := range n.Fields.All() {
			appendPair(props, name, EncodeNode(child))
		}
		appendPair(m, "properties", props)
		return m

	case KindArray:
		if n.Items == nil {
			if n.Raw != nil {
				return cloneYAMLNode(n.Raw)
			}
			m := newMappingNode()
			appendPair(m, "type", strNode("array"))
			return m
		}
		m := newMappingNode()
		appendPair(m, "type", strNode("array"))
		appendPair(m, "items", EncodeNode(n.Items))
		return m

	case KindLeaf:
		if n.Leaf == nil {
			if n.Raw != nil {
				return cloneYAMLNode(n.Raw)
			}
			return nullNode()
		}
		if n.Leaf.Type == "" && n.Leaf.InferenceType == "" && n.Leaf.Instruction == "" &&
			(n.Leaf.Extra == nil || n.Leaf.Extra.Len() == 0) && n.Raw != nil {
			// Nothing was lifted at parse time; echo the source verbatim.
			return cloneYAMLNode(n.Raw)
		}
		m := newMappingNode()
		if n.Leaf.Type != "" {
			appendPair(m, "type", strNode(n.Leaf.Type))
		}
		if n.Leaf.InferenceType != "" {
			appendPair(m, "inferenceType", strNode(n.Leaf.InferenceType))
		}
		if n.Leaf.Instruction != "" {
			appendPair(m, "instruction", strNode(n.Leaf.Instruction))
		}
		if n.Leaf.Extra != nil {
			for k, v := range n.Leaf.Extra.All() {
				appendPair(m, k, cloneYAMLNode(v))
			}
		}
		return m

	default:
		return nullNode()
	}
}

// yaml.Node helpers -----------------------------------------------------------

func unalias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// mapValue returns the value node for a key in a mapping, or nil.
func mapValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// mapScalar returns the scalar string value for a key, or "".
func mapScalar(m *yaml.Node, key string) string {
	v := unalias(mapValue(m, key))
	if v == nil || v.Kind != yaml.ScalarNode {
		return ""
	}
	return v.Value
}

func newMappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func nullNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, strNode(key), value)
}

func yamlKindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}
