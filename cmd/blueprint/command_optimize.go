package main

import (
	"context"
	"fmt"
	"os"

	blueprint "github.com/extractkit/blueprint"
	"github.com/extractkit/blueprint/export"
	"github.com/extractkit/blueprint/optimize"
)

// OptimizeCmd applies a run config's optimized instructions to a blueprint
// through the flatten/unflatten round trip and writes the rebuilt schema.
type OptimizeCmd struct {
	Config string `help:"Run config file (JSON)." required:"" type:"existingfile"`
	Schema string `help:"Blueprint schema file (JSON or YAML)." required:"" type:"existingfile"`
	Output string `short:"o" help:"Destination for the optimized schema; defaults to overwriting the input." placeholder:"FILE"`
}

// Run executes the optimize command.
func (cmd *OptimizeCmd) Run(ctx *Context) error {
	cfg, err := optimize.LoadConfig(cmd.Config)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	doc, err := blueprint.Load(cmd.Schema)
	if err != nil {
		return err
	}

	runner := &optimize.Runner{
		Log:       ctx.Log,
		Optimizer: optimize.InstructionMap(cfg.InstructionTable()),
	}
	res, err := runner.Run(context.Background(), doc)
	if err != nil {
		return err
	}

	out := cmd.Output
	if out == "" {
		out = cmd.Schema
	}
	if err := res.Document.Save(out); err != nil {
		return err
	}

	if !ctx.Quiet {
		fmt.Fprint(os.Stdout, export.RunReport(res))
		fmt.Fprintf(os.Stdout, "wrote %s\n", out)
	}
	return nil
}
