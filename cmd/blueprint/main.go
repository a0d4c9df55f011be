// Command blueprint inspects, optimizes and exports document-extraction
// blueprint schemas.
package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/extractkit/blueprint/optimize"
)

// Context carries the global flags and shared dependencies into commands.
type Context struct {
	Verbose bool
	Quiet   bool
	Log     optimize.Logger
}

// CLI is the top-level command tree.
type CLI struct {
	Verbose bool `short:"v" help:"Enable debug logging."`
	Quiet   bool `short:"q" help:"Only log errors."`

	Fields   FieldsCmd   `cmd:"" help:"Flatten a blueprint and list its field paths."`
	Optimize OptimizeCmd `cmd:"" help:"Apply optimized instructions to a blueprint through a flatten/unflatten round trip."`
	Export   ExportCmd   `cmd:"" help:"Render the automation-service blueprint payload."`
}

func main() {
	// Honor redirected output; the tables are also parsed by scripts.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	var cli CLI
	parser := kong.Parse(&cli,
		kong.Name("blueprint"),
		kong.Description("Inspect, optimize and export document-extraction blueprint schemas."),
		kong.UsageOnError(),
	)

	level := optimize.LevelWarn
	switch {
	case cli.Quiet:
		level = optimize.LevelError
	case cli.Verbose:
		level = optimize.LevelDebug
	}

	err := parser.Run(&Context{
		Verbose: cli.Verbose,
		Quiet:   cli.Quiet,
		Log:     optimize.NewLogger(level, os.Stderr),
	})
	parser.FatalIfErrorf(err)
}
