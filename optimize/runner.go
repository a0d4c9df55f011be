package optimize

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	blueprint "github.com/extractkit/blueprint"
	"github.com/extractkit/blueprint/flatten"
	"github.com/extractkit/blueprint/schema"
)

// ErrPathSetChanged reports an optimizer that added or removed paths. The
// round-trip contract only covers payload mutation, so a changed path set
// fails the run instead of being silently reconciled.
var ErrPathSetChanged = errors.New("optimizer changed the field path set")

// Result summarizes one optimization round trip.
type Result struct {
	RunID string

	// Document is the rebuilt blueprint with optimized instructions.
	Document *blueprint.Document

	// Fields is the number of flattened entries; Opaque counts the subset
	// that passed through as opaque terminals; Rewritten counts leaves
	// whose instruction changed.
	Fields    int
	Opaque    int
	Rewritten int

	StartedAt  time.Time
	FinishedAt time.Time

	Warnings []string
}

// Runner runs the flatten → optimize → unflatten pipeline over a document.
type Runner struct {
	Log       Logger
	Optimizer Optimizer

	// FlattenOptions applies to the flatten pass; the zero value means
	// flatten.DefaultOptions.
	FlattenOptions flatten.Options
}

// NewRunner returns a Runner with a discarding logger.
func NewRunner(opt Optimizer) *Runner {
	return &Runner{Log: NewNopLogger(), Optimizer: opt}
}

// Run flattens the document, hands the flat fields to the optimizer,
// verifies the path-set contract, and rebuilds the nested document. The
// input document is never mutated.
func (r *Runner) Run(ctx context.Context, doc *blueprint.Document) (*Result, error) {
	if r.Optimizer == nil {
		return nil, errors.New("run: no optimizer configured")
	}
	log := r.Log
	if log == nil {
		log = NewNopLogger()
	}

	res := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log = log.With(map[string]any{"run_id": res.RunID})

	opts := r.FlattenOptions
	if opts.MaxDepth <= 0 {
		opts = flatten.DefaultOptions()
	}
	fields, mapping := flatten.FlattenWithOptions(doc.Properties, opts)
	res.Fields = fields.Len()

	before := make(map[string]string, fields.Len())
	for path, node := range fields.All() {
		if node.Kind == schema.KindLeaf && node.Leaf != nil {
			before[path] = node.Leaf.Instruction
		}
		if mapping[path].Opaque {
			res.Opaque++
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("field %q is incompletely specified and passes through unoptimized", path))
		}
	}
	log.Infof("flattened schema fields=%d opaque=%d", res.Fields, res.Opaque)

	if err := r.Optimizer.OptimizeFields(ctx, fields); err != nil {
		return nil, fmt.Errorf("optimize fields: %w", err)
	}

	if err := verifyPathSet(fields, mapping); err != nil {
		return nil, err
	}

	for path, node := range fields.All() {
		if node.Kind != schema.KindLeaf || node.Leaf == nil {
			continue
		}
		if node.Leaf.Instruction != before[path] {
			res.Rewritten++
			log.Debugf("instruction rewritten path=%s", path)
		}
	}

	rebuilt, err := flatten.Unflatten(fields, mapping)
	if err != nil {
		return nil, fmt.Errorf("rebuild schema: %w", err)
	}
	if !schema.Equal(stripInstructions(doc.Properties), stripInstructions(rebuilt)) {
		// The rebuilt shape must match the input apart from payloads.
		return nil, errors.New("rebuild schema: structure mismatch after round trip")
	}

	res.Document = doc.WithProperties(rebuilt)
	res.FinishedAt = time.Now()
	log.Infof("round trip complete rewritten=%d duration=%s", res.Rewritten, res.FinishedAt.Sub(res.StartedAt))
	return res, nil
}

// verifyPathSet checks that the optimizer neither added nor removed paths:
// the field set must still cover exactly the paths the mapping records.
func verifyPathSet(fields *flatten.FieldSet, mapping flatten.Mapping) error {
	if fields.Len() != len(mapping) {
		return fmt.Errorf("%w: %d fields vs %d mapped paths", ErrPathSetChanged, fields.Len(), len(mapping))
	}
	for path := range fields.All() {
		if _, ok := mapping[path]; !ok {
			return fmt.Errorf("%w: unexpected path %q", ErrPathSetChanged, path)
		}
	}
	return nil
}

// stripInstructions clones a tree with every leaf instruction blanked, for
// payload-independent structural comparison.
func stripInstructions(n *schema.Node) *schema.Node {
	out := n.Clone()
	var walk func(*schema.Node)
	walk = func(n *schema.Node) {
		if n == nil {
			return
		}
		switch n.Kind {
		case schema.KindLeaf:
			if n.Leaf != nil {
				n.Leaf.Instruction = ""
			}
		case schema.KindObject:
			if n.Fields != nil {
				for _, child := range n.Fields.All() {
					walk(child)
				}
			}
		case schema.KindArray:
			walk(n.Items)
		}
	}
	walk(out)
	return out
}
