package flatten

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBreadcrumbPath(t *testing.T) {
	tests := []struct {
		name  string
		crumb Breadcrumb
		want  string
	}{
		{
			name:  "empty crumb",
			crumb: nil,
			want:  "",
		},
		{
			name:  "single field",
			crumb: Breadcrumb{{Kind: StepField, Field: "amount"}},
			want:  "amount",
		},
		{
			name: "nested fields",
			crumb: Breadcrumb{
				{Kind: StepField, Field: "customer"},
				{Kind: StepField, Field: "name"},
			},
			want: "customer.name",
		},
		{
			name: "array descent",
			crumb: Breadcrumb{
				{Kind: StepField, Field: "line_items"},
				{Kind: StepElem},
				{Kind: StepField, Field: "unit_price"},
			},
			want: "line_items[*].unit_price",
		},
		{
			name: "array of arrays",
			crumb: Breadcrumb{
				{Kind: StepField, Field: "matrix"},
				{Kind: StepElem},
				{Kind: StepElem},
				{Kind: StepField, Field: "cell"},
			},
			want: "matrix[*][*].cell",
		},
		{
			name: "array of arrays of leaves",
			crumb: Breadcrumb{
				{Kind: StepField, Field: "grid"},
				{Kind: StepElem},
				{Kind: StepElem},
			},
			want: "grid[*][*]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.crumb.Path()
			if got != tt.want {
				t.Fatalf("Path() = %q, want %q", got, tt.want)
			}

			// The codec must round-trip exactly for every producible path.
			back := ParsePath(got)
			if diff := cmp.Diff(tt.crumb, back); diff != "" {
				t.Fatalf("ParsePath(%q) does not round-trip (-want +got):\n%s", got, diff)
			}
			if back.Path() != got {
				t.Fatalf("re-rendered path %q, want %q", back.Path(), got)
			}
		})
	}
}

func TestParsePathArrayMarkers(t *testing.T) {
	got := ParsePath("orders[*].items[*].sku")
	want := Breadcrumb{
		{Kind: StepField, Field: "orders"},
		{Kind: StepElem},
		{Kind: StepField, Field: "items"},
		{Kind: StepElem},
		{Kind: StepField, Field: "sku"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("breadcrumb mismatch (-want +got):\n%s", diff)
	}
}

func TestPushDoesNotAliasSharedPrefix(t *testing.T) {
	base := Breadcrumb{{Kind: StepField, Field: "a"}}
	left := base.push(Step{Kind: StepField, Field: "b"})
	right := base.push(Step{Kind: StepField, Field: "c"})

	if left.Path() != "a.b" {
		t.Fatalf("left path = %q, want %q", left.Path(), "a.b")
	}
	if right.Path() != "a.c" {
		t.Fatalf("right path = %q, want %q (push must copy, not share backing arrays)", right.Path(), "a.c")
	}
}
