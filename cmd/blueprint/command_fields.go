package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	blueprint "github.com/extractkit/blueprint"
	"github.com/extractkit/blueprint/flatten"
	"github.com/extractkit/blueprint/schema"
)

// FieldsCmd flattens a blueprint and prints one row per field path.
type FieldsCmd struct {
	Schema string `arg:"" help:"Blueprint schema file (JSON or YAML)." type:"existingfile"`
}

// Run executes the fields command.
func (cmd *FieldsCmd) Run(ctx *Context) error {
	doc, err := blueprint.Load(cmd.Schema)
	if err != nil {
		return err
	}

	fields, mapping := doc.Flatten()
	ctx.Log.Debugf("flattened %s fields=%d nested=%t", cmd.Schema, fields.Len(), doc.IsNested())

	printFieldTable(os.Stdout, fields, mapping)
	return nil
}

const maxInstructionWidth = 60

// printFieldTable renders the flattened fields as an aligned table. Widths
// are computed with runewidth so multi-byte field names stay aligned.
func printFieldTable(w io.Writer, fields *flatten.FieldSet, mapping flatten.Mapping) {
	pathWidth := runewidth.StringWidth("PATH")
	typeWidth := runewidth.StringWidth("TYPE")
	for path, node := range fields.All() {
		if pw := runewidth.StringWidth(path); pw > pathWidth {
			pathWidth = pw
		}
		if tw := runewidth.StringWidth(typeLabel(node, mapping[path])); tw > typeWidth {
			typeWidth = tw
		}
	}

	header := color.New(color.FgCyan, color.Bold)
	header.Fprintf(w, "%s  %s  %s\n",
		runewidth.FillRight("PATH", pathWidth),
		runewidth.FillRight("TYPE", typeWidth),
		"INSTRUCTION")

	opaque := color.New(color.FgYellow)
	for path, node := range fields.All() {
		label := typeLabel(node, mapping[path])
		instruction := ""
		if node.Kind == schema.KindLeaf && node.Leaf != nil {
			instruction = runewidth.Truncate(node.Leaf.Instruction, maxInstructionWidth, "…")
		}
		line := fmt.Sprintf("%s  %s  %s",
			runewidth.FillRight(path, pathWidth),
			runewidth.FillRight(label, typeWidth),
			instruction)
		if mapping[path].Opaque {
			opaque.Fprintln(w, line)
		} else {
			fmt.Fprintln(w, line)
		}
	}
}

func typeLabel(node *schema.Node, entry flatten.Entry) string {
	label := schema.Summary(node)
	if entry.Opaque {
		label += " (opaque)"
	}
	return label
}
