// Package optimize orchestrates the flatten → rewrite → unflatten round
// trip that carries a blueprint's fields through an instruction
// optimization step.
//
// The optimization itself is opaque to this package: anything satisfying
// Optimizer may rewrite leaf payloads. The package enforces the contract
// around it — paths and the path set are untouchable — and rebuilds the
// nested document afterwards.
package optimize

import (
	"context"

	"github.com/extractkit/blueprint/flatten"
	"github.com/extractkit/blueprint/schema"
)

// Optimizer rewrites the flat fields of a blueprint in place. An
// implementation may mutate only leaf payloads (instruction, metadata); it
// must not add, remove or rename paths. Runner verifies the path set after
// the call and fails the run if it changed.
type Optimizer interface {
	OptimizeFields(ctx context.Context, fields *flatten.FieldSet) error
}

// RewriteFunc adapts a per-leaf rewrite function to the Optimizer
// interface. The function receives each leaf's path and payload and
// returns the replacement instruction; returning ok=false leaves the field
// unchanged. Opaque terminals are skipped.
type RewriteFunc func(path string, leaf *schema.Leaf) (instruction string, ok bool)

// OptimizeFields applies the rewrite to every leaf in the set.
func (f RewriteFunc) OptimizeFields(ctx context.Context, fields *flatten.FieldSet) error {
	for path, node := range fields.All() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if node.Kind != schema.KindLeaf || node.Leaf == nil {
			continue
		}
		if instruction, ok := f(path, node.Leaf); ok {
			node.Leaf.Instruction = instruction
		}
	}
	return nil
}

// InstructionMap is an Optimizer that applies a path→instruction table,
// the shape an external optimization service hands back. Paths absent from
// the field set are ignored, matching how optimized instructions were
// historically written back onto schemas field by field.
type InstructionMap map[string]string

// OptimizeFields applies the table to matching leaves.
func (m InstructionMap) OptimizeFields(ctx context.Context, fields *flatten.FieldSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for path, instruction := range m {
		node, ok := fields.Get(path)
		if !ok || node.Kind != schema.KindLeaf || node.Leaf == nil {
			continue
		}
		node.Leaf.Instruction = instruction
	}
	return nil
}
