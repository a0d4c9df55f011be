package schema

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

// mustParseYAML decodes a YAML/JSON snippet to its root mapping node.
func mustParseYAML(t *testing.T, src string) *yaml.Node {
	t.Helper()
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(src), &node); err != nil {
		t.Fatalf("yaml.Unmarshal failed: %v", err)
	}
	if node.Kind == yaml.DocumentNode {
		return node.Content[0]
	}
	return &node
}

const nestedProperties = `
invoice_number:
  type: string
  inferenceType: explicit
  instruction: Extract the invoice number
customer:
  type: object
  properties:
    name:
      type: string
      inferenceType: explicit
      instruction: Extract the customer name
line_items:
  type: array
  items:
    type: object
    properties:
      unit_price:
        type: number
        inferenceType: explicit
        instruction: Extract the unit price
tags:
  type: array
  items:
    type: string
  instruction: Extract all tags
`

func TestParsePropertiesDialect(t *testing.T) {
	root, err := ParseProperties(mustParseYAML(t, nestedProperties), NewDefinitions(nil))
	if err != nil {
		t.Fatalf("ParseProperties failed: %v", err)
	}

	var order []string
	for name := range root.Fields.All() {
		order = append(order, name)
	}
	want := []string{"invoice_number", "customer", "line_items", "tags"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}

	invoice, _ := root.Field("invoice_number")
	if invoice.Kind != KindLeaf || invoice.Leaf.Type != "string" || invoice.Leaf.InferenceType != "explicit" {
		t.Errorf("invoice_number parsed as %s", Summary(invoice))
	}

	customer, _ := root.Field("customer")
	if customer.Kind != KindObject || customer.FieldLen() != 1 {
		t.Errorf("customer parsed as %s", Summary(customer))
	}

	items, _ := root.Field("line_items")
	if items.Kind != KindArray || items.Items == nil || items.Items.Kind != KindObject {
		t.Fatalf("line_items parsed as %s", Summary(items))
	}
	price, ok := items.Items.Field("unit_price")
	if !ok || price.Kind != KindLeaf || price.Leaf.Type != "number" {
		t.Errorf("unit_price parsed as %s", Summary(price))
	}

	// A scalar-element array is one flat field: the instruction sits on the
	// array itself.
	tags, _ := root.Field("tags")
	if tags.Kind != KindLeaf {
		t.Fatalf("tags parsed as %s, want leaf", Summary(tags))
	}
	if tags.Leaf.Type != "array" || tags.Leaf.Instruction != "Extract all tags" {
		t.Errorf("tags leaf = %+v", tags.Leaf)
	}
	if tags.Leaf.Extra == nil {
		t.Fatal("tags items definition should be preserved as extra metadata")
	}
	if _, ok := tags.Leaf.Extra.Get("items"); !ok {
		t.Error("tags extra metadata is missing the items node")
	}
}

func TestParseNodeIncompleteComposites(t *testing.T) {
	defs := NewDefinitions(nil)

	obj, err := ParseNode("meta", mustParseYAML(t, `{type: object}`), defs)
	if err != nil {
		t.Fatalf("ParseNode failed: %v", err)
	}
	if obj.Kind != KindObject || obj.Fields != nil {
		t.Errorf("propertyless object should keep its kind with nil fields, got %s", Summary(obj))
	}
	if obj.Raw == nil {
		t.Error("incomplete object should retain its raw form for re-export")
	}

	arr, err := ParseNode("list", mustParseYAML(t, `{type: array}`), defs)
	if err != nil {
		t.Fatalf("ParseNode failed: %v", err)
	}
	if arr.Kind != KindArray || arr.Items != nil {
		t.Errorf("itemless array should keep its kind with nil items, got %s", Summary(arr))
	}
}

func TestParseNodeDefinitionRef(t *testing.T) {
	defs := NewDefinitions(mustParseYAML(t, `
Customer Details:
  type: object
  properties:
    name:
      type: string
      inferenceType: explicit
      instruction: Extract the name
`))

	node, err := ParseNode("customer", mustParseYAML(t, `{"$ref": "#/definitions/Customer%20Details"}`), defs)
	if err != nil {
		t.Fatalf("ParseNode failed: %v", err)
	}
	if node.Kind != KindObject {
		t.Fatalf("resolved $ref parsed as %s, want object", Summary(node))
	}
	name, ok := node.Field("name")
	if !ok || name.Leaf.Instruction != "Extract the name" {
		t.Errorf("referenced definition fields not inlined: %s", Summary(node))
	}

	// Unresolvable references degrade to an opaque leaf instead of failing.
	unresolved, err := ParseNode("other", mustParseYAML(t, `{"$ref": "#/definitions/Missing"}`), defs)
	if err != nil {
		t.Fatalf("ParseNode failed: %v", err)
	}
	if unresolved.Kind != KindLeaf {
		t.Errorf("unresolvable $ref parsed as %s, want leaf", Summary(unresolved))
	}
}

func TestEncodePropertiesRoundTrip(t *testing.T) {
	defs := NewDefinitions(nil)
	first, err := ParseProperties(mustParseYAML(t, nestedProperties), defs)
	if err != nil {
		t.Fatalf("ParseProperties failed: %v", err)
	}

	encoded := EncodeProperties(first)
	second, err := ParseProperties(encoded, defs)
	if err != nil {
		t.Fatalf("re-parse failed: %v", err)
	}

	if !Equal(first, second) {
		t.Fatalf("encode/parse round trip changed the tree:\nfirst:  %s\nsecond: %s",
			Canonical(first, 100), Canonical(second, 100))
	}
}

func TestEncodeLeafKeepsExtraMetadata(t *testing.T) {
	defs := NewDefinitions(nil)
	node, err := ParseNode("due_date", mustParseYAML(t, `
type: string
format: date
inferenceType: explicit
instruction: Extract the due date
`), defs)
	if err != nil {
		t.Fatalf("ParseNode failed: %v", err)
	}

	encoded := EncodeNode(node)
	if got := mapScalar(encoded, "format"); got != "date" {
		t.Errorf("format extra = %q, want %q", got, "date")
	}
	if got := mapScalar(encoded, "instruction"); got != "Extract the due date" {
		t.Errorf("instruction = %q", got)
	}
}

func TestRenderJSONPreservesOrder(t *testing.T) {
	node := mustParseYAML(t, `
b: 1
a: text
nested:
  z: true
  y: null
list: [1, 2]
`)
	out, err := RenderJSON(node, "")
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	want := `{"b":1,"a":"text","nested":{"z":true,"y":null},"list":[1,2]}`
	if string(out) != want {
		t.Fatalf("RenderJSON = %s, want %s", out, want)
	}
}

func TestRenderJSONIndented(t *testing.T) {
	node := mustParseYAML(t, `{a: 1}`)
	out, err := RenderJSON(node, "  ")
	if err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}
	if !strings.Contains(string(out), "\n  \"a\": 1\n") {
		t.Fatalf("unexpected indented output:\n%s", out)
	}
}
