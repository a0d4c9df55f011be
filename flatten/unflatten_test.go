package flatten

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/extractkit/blueprint/schema"
)

func TestUnflattenRoundTripIdentity(t *testing.T) {
	root := invoiceSchema()

	fields, mapping := Flatten(root)
	rebuilt, err := Unflatten(fields, mapping)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}

	if !schema.Equal(root, rebuilt) {
		t.Fatalf("round trip is not structurally identical:\noriginal: %s\nrebuilt:  %s",
			schema.Canonical(root, 100), schema.Canonical(rebuilt, 100))
	}
}

func TestUnflattenLeafMutationTransparency(t *testing.T) {
	root := invoiceSchema()
	fields, mapping := Flatten(root)

	// Simulate the external optimization step: rewrite payloads only.
	node, _ := fields.Get("customer.name")
	node.Leaf.Instruction = "Extract the full legal name of the customer"
	node, _ = fields.Get("line_items[*].unit_price")
	node.Leaf.Instruction = "Extract the per-unit price before tax"

	rebuilt, err := Unflatten(fields, mapping)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}

	customer, _ := rebuilt.Field("customer")
	name, _ := customer.Field("name")
	if name.Leaf.Instruction != "Extract the full legal name of the customer" {
		t.Errorf("customer.name instruction = %q", name.Leaf.Instruction)
	}

	items, _ := rebuilt.Field("line_items")
	price, _ := items.Items.Field("unit_price")
	if price.Leaf.Instruction != "Extract the per-unit price before tax" {
		t.Errorf("unit_price instruction = %q", price.Leaf.Instruction)
	}

	// Everything but the two instructions must match the original.
	if schema.Equal(root, rebuilt) {
		t.Fatal("sanity: rebuilt tree should differ in the mutated instructions")
	}
	untouched, _ := rebuilt.Field("invoice_number")
	originalUntouched, _ := root.Field("invoice_number")
	if !schema.Equal(originalUntouched, untouched) {
		t.Error("unmutated field changed through the round trip")
	}
}

func TestUnflattenDegenerateRootLeaf(t *testing.T) {
	root := schema.NewLeaf("amount", "number", "explicit", "Extract the amount")

	fields, mapping := Flatten(root)
	rebuilt, err := Unflatten(fields, mapping)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}
	if !schema.Equal(root, rebuilt) {
		t.Fatal("degenerate flat schema did not round-trip")
	}
}

func TestUnflattenOpaqueTerminalRoundTrip(t *testing.T) {
	root := schema.NewObject()
	root.SetField("metadata", &schema.Node{Kind: schema.KindObject})
	root.SetField("total", schema.NewLeaf("total", "number", "explicit", "Extract the total"))

	fields, mapping := Flatten(root)
	rebuilt, err := Unflatten(fields, mapping)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}
	if !schema.Equal(root, rebuilt) {
		t.Fatal("schema with opaque terminal did not round-trip unchanged")
	}
}

func TestUnflattenStaleMappingFailsLoudly(t *testing.T) {
	fields, mapping := Flatten(invoiceSchema())

	// A field set carrying a path the mapping has never seen indicates
	// mixed artifacts from different flatten calls.
	fields.Set("bogus.path", schema.NewLeaf("path", "string", "explicit", "nope"))

	_, err := Unflatten(fields, mapping)
	if err == nil {
		t.Fatal("expected an error for an unmapped path, got a tree")
	}
	if !errors.Is(err, ErrPathNotMapped) {
		t.Fatalf("error = %v, want ErrPathNotMapped", err)
	}
}

func TestUnflattenSharedPrefixCreatesIntermediateOnce(t *testing.T) {
	root := schema.NewObject()
	customer := schema.NewObject()
	customer.SetField("name", schema.NewLeaf("name", "string", "explicit", "name"))
	customer.SetField("email", schema.NewLeaf("email", "string", "explicit", "email"))
	root.SetField("customer", customer)

	fields, mapping := Flatten(root)
	rebuilt, err := Unflatten(fields, mapping)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}

	got, ok := rebuilt.Field("customer")
	if !ok {
		t.Fatal("customer object missing")
	}
	if got.FieldLen() != 2 {
		t.Fatalf("intermediate object was overwritten: %d fields, want 2", got.FieldLen())
	}
}

func TestUnflattenFieldOrderFollowsInputOrder(t *testing.T) {
	root := invoiceSchema()
	fields, mapping := Flatten(root)

	// Reorder the flat entries; reconstruction order must follow the new
	// first-encounter order, deterministically.
	reordered := NewFieldSet()
	paths := fields.Paths()
	for i := len(paths) - 1; i >= 0; i-- {
		node, _ := fields.Get(paths[i])
		reordered.Set(paths[i], node)
	}

	rebuilt, err := Unflatten(reordered, mapping)
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}

	var topLevel []string
	for name := range rebuilt.Fields.All() {
		topLevel = append(topLevel, name)
	}
	want := []string{"line_items", "customer", "invoice_number"}
	if diff := cmp.Diff(want, topLevel); diff != "" {
		t.Fatalf("top-level order mismatch (-want +got):\n%s", diff)
	}

	again, err := Unflatten(reordered, mapping)
	if err != nil {
		t.Fatalf("second Unflatten failed: %v", err)
	}
	if !schema.Equal(rebuilt, again) {
		t.Fatal("unflattening the same input twice gave different trees")
	}
}

func TestUnflattenEmptyFieldSet(t *testing.T) {
	rebuilt, err := Unflatten(NewFieldSet(), Mapping{})
	if err != nil {
		t.Fatalf("Unflatten failed: %v", err)
	}
	if rebuilt.Kind != schema.KindObject || rebuilt.FieldLen() != 0 {
		t.Fatalf("empty field set should rebuild an empty object, got %s", schema.Summary(rebuilt))
	}
}

func TestUnflattenConflictingBreadcrumbs(t *testing.T) {
	// Hand-build a mapping that places a terminal where another crumb
	// needs an object. This cannot come from one Flatten call, so it must
	// fail rather than overwrite.
	fields := NewFieldSet()
	fields.Set("a", schema.NewLeaf("a", "string", "explicit", "terminal"))
	fields.Set("a.b", schema.NewLeaf("b", "string", "explicit", "child"))

	mapping := Mapping{
		"a": {Crumb: Breadcrumb{{Kind: StepField, Field: "a"}}},
		"a.b": {Crumb: Breadcrumb{
			{Kind: StepField, Field: "a"},
			{Kind: StepField, Field: "b"},
		}},
	}

	_, err := Unflatten(fields, mapping)
	if err == nil {
		t.Fatal("expected a conflict error")
	}
	if !errors.Is(err, ErrMappingConflict) {
		t.Fatalf("error = %v, want ErrMappingConflict", err)
	}
}
