package main

import (
	"fmt"
	"os"

	blueprint "github.com/extractkit/blueprint"
	"github.com/extractkit/blueprint/export"
)

// ExportCmd renders the automation-service create-blueprint payload for a
// schema file.
type ExportCmd struct {
	Schema string `help:"Blueprint schema file (JSON or YAML)." required:"" type:"existingfile"`
	Name   string `help:"Blueprint name to register under." required:""`
	Stage  string `help:"Blueprint stage (e.g. LIVE)." default:""`
	Output string `short:"o" help:"Write the payload to a file instead of stdout." placeholder:"FILE"`
}

// Run executes the export command.
func (cmd *ExportCmd) Run(ctx *Context) error {
	doc, err := blueprint.Load(cmd.Schema)
	if err != nil {
		return err
	}

	payload, err := export.CreateBlueprintPayload(doc, cmd.Name, cmd.Stage)
	if err != nil {
		return err
	}
	payload = append(payload, '\n')

	if cmd.Output != "" {
		if err := os.WriteFile(cmd.Output, payload, 0o644); err != nil {
			return fmt.Errorf("write payload: %w", err)
		}
		ctx.Log.Infof("wrote payload file=%s bytes=%d", cmd.Output, len(payload))
		return nil
	}
	_, err = os.Stdout.Write(payload)
	return err
}
