// Package blueprint loads, transforms and saves document-extraction
// blueprint schemas.
//
// A blueprint document is a JSON-Schema draft-07 flavored envelope whose
// "properties" describe the fields to extract from a document class, each
// carrying an extraction instruction. The schema/flatten subpackages do the
// structural work; this package owns the on-disk envelope.
package blueprint

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/speakeasy-api/openapi/sequencedmap"
	"gopkg.in/yaml.v3"

	"github.com/extractkit/blueprint/flatten"
	"github.com/extractkit/blueprint/schema"
)

// DefaultSchemaDialect is the dialect URI written for new documents.
const DefaultSchemaDialect = "http://json-schema.org/draft-07/schema#"

// Document is a parsed blueprint schema file.
type Document struct {
	// SchemaDialect is the "$schema" envelope field.
	SchemaDialect string

	// Description describes the document class.
	Description string

	// Class is the document class name.
	Class string

	// Type is the envelope's declared type, "object" for every document
	// this dialect produces.
	Type string

	// Definitions is the raw "definitions" section, used to inline
	// "#/definitions/" references while parsing properties.
	Definitions schema.Definitions

	// Properties is the root Object node.
	Properties *schema.Node

	// definitionsRaw and extra preserve the original definitions node and
	// any unrecognized envelope keys for lossless re-export.
	definitionsRaw *yaml.Node
	extra          *sequencedmap.Map[string, *yaml.Node]
}

// New returns an empty document with dialect defaults filled in.
func New(description, class string) *Document {
	return &Document{
		SchemaDialect: DefaultSchemaDialect,
		Description:   description,
		Class:         class,
		Type:          "object",
		Definitions:   schema.NewDefinitions(nil),
		Properties:    schema.NewObject(),
	}
}

// Unmarshal parses a blueprint document from r. Input may be JSON or YAML;
// both are decoded through the yaml node model so field order survives.
func Unmarshal(r io.Reader) (*Document, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		return nil, fmt.Errorf("parse blueprint document: %w", err)
	}
	root := &node
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, fmt.Errorf("parse blueprint document: empty document")
		}
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse blueprint document: top level must be a mapping")
	}

	doc := &Document{}
	var propsNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		val := root.Content[i+1]
		switch key {
		case "$schema":
			doc.SchemaDialect = val.Value
		case "description":
			doc.Description = val.Value
		case "class":
			doc.Class = val.Value
		case "type":
			doc.Type = val.Value
		case "definitions":
			doc.definitionsRaw = val
		case "properties":
			propsNode = val
		default:
			if doc.extra == nil {
				doc.extra = sequencedmap.New[string, *yaml.Node]()
			}
			doc.extra.Set(key, val)
		}
	}

	doc.Definitions = schema.NewDefinitions(doc.definitionsRaw)
	props, err := schema.ParseProperties(propsNode, doc.Definitions)
	if err != nil {
		return nil, fmt.Errorf("parse blueprint document: %w", err)
	}
	doc.Properties = props
	return doc, nil
}

// Load reads and parses a blueprint document file.
func Load(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load blueprint: %w", err)
	}
	defer f.Close()
	return Unmarshal(f)
}

// envelope rebuilds the document's yaml mapping in canonical key order,
// with unrecognized keys appended in their original order.
func (d *Document) envelope() *yaml.Node {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	pair := func(key string, val *yaml.Node) {
		m.Content = append(m.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
	str := func(s string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	}

	if d.SchemaDialect != "" {
		pair("$schema", str(d.SchemaDialect))
	}
	if d.Description != "" {
		pair("description", str(d.Description))
	}
	if d.Class != "" {
		pair("class", str(d.Class))
	}
	if d.Type != "" {
		pair("type", str(d.Type))
	}
	if d.definitionsRaw != nil {
		pair("definitions", d.definitionsRaw)
	}
	pair("properties", schema.EncodeProperties(d.Properties))
	if d.extra != nil {
		for k, v := range d.extra.All() {
			pair(k, v)
		}
	}
	return m
}

// MarshalJSON renders the document as indented JSON with field order
// preserved.
func (d *Document) MarshalJSON() ([]byte, error) {
	return schema.RenderJSON(d.envelope(), "    ")
}

// Marshal writes the document to w as JSON.
func (d *Document) Marshal(w io.Writer) error {
	data, err := d.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	return nil
}

// MarshalYAML writes the document to w as YAML.
func (d *Document) MarshalYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.envelope()); err != nil {
		return fmt.Errorf("marshal blueprint: %w", err)
	}
	return enc.Close()
}

// Save writes the document to path, choosing YAML for .yaml/.yml and JSON
// otherwise.
func (d *Document) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save blueprint: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = d.MarshalYAML(f)
	default:
		err = d.Marshal(f)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// IsNested reports whether any top-level field composes further structure.
// Flat documents round-trip through flatten/unflatten unchanged, so callers
// use this only to skip needless work.
func (d *Document) IsNested() bool {
	if d.Properties == nil || d.Properties.Fields == nil {
		return false
	}
	for _, child := range d.Properties.Fields.All() {
		if child.Kind != schema.KindLeaf {
			return true
		}
	}
	return false
}

// Flatten flattens the document's properties. See flatten.Flatten.
func (d *Document) Flatten() (*flatten.FieldSet, flatten.Mapping) {
	return flatten.Flatten(d.Properties)
}

// WithProperties returns a copy of the document envelope carrying the given
// root node, leaving the receiver untouched.
func (d *Document) WithProperties(root *schema.Node) *Document {
	out := *d
	out.Properties = root
	return &out
}

// UpdateInstruction rewrites the instruction of the leaf at the given
// field name or dotted path. It reports whether a matching leaf was found.
func (d *Document) UpdateInstruction(path, instruction string) bool {
	if d.Properties == nil {
		return false
	}
	// A flat field name may legitimately contain dots; prefer the literal
	// match before falling back to path navigation.
	if node, ok := d.Properties.Field(path); ok {
		if node.Kind == schema.KindLeaf && node.Leaf != nil {
			node.Leaf.Instruction = instruction
			return true
		}
		return false
	}

	cur := d.Properties
	for _, step := range flatten.ParsePath(path) {
		switch step.Kind {
		case flatten.StepField:
			next, ok := cur.Field(step.Field)
			if !ok {
				return false
			}
			cur = next
		case flatten.StepElem:
			if cur.Kind != schema.KindArray || cur.Items == nil {
				return false
			}
			cur = cur.Items
		}
	}
	if cur.Kind == schema.KindLeaf && cur.Leaf != nil {
		cur.Leaf.Instruction = instruction
		return true
	}
	return false
}
