package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	steps "github.com/CFFinch62/Steps-sub001"
)

// Context carries global flags to every command.
type Context struct {
	Quiet bool
}

// CLI is the command grammar.
var CLI struct {
	Quiet bool `help:"Suppress non-error output." short:"q"`

	Run     RunCmd     `cmd:"" help:"Run a Steps project."`
	Check   CheckCmd   `cmd:"" help:"Parse and validate a project without running it."`
	Repl    ReplCmd    `cmd:"" help:"Start an interactive session."`
	Debug   DebugCmd   `cmd:"" help:"Run a project under the stepping debugger."`
	Version VersionCmd `cmd:"" help:"Show version information."`
}

// VersionCmd prints the engine version.
type VersionCmd struct{}

func (cmd *VersionCmd) Run() error {
	fmt.Printf("Steps v%s\n", steps.Version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("steps"),
		kong.Description("The Steps educational programming language."),
		kong.UsageOnError(),
	)

	err := ctx.Run(&Context{Quiet: CLI.Quiet})
	if err != nil {
		os.Exit(1)
	}
}
