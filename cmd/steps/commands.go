package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"

	steps "github.com/CFFinch62/Steps-sub001"
)

// Sentinel errors for exit status. Diagnostics are printed where they
// occur; these only signal failure to main.
var (
	errLoadFailed = errors.New("project has errors")
	errRunFailed  = errors.New("run failed")
)

// printDiagnostic renders an engine error. The formatted body carries
// the location, context and hint.
func printDiagnostic(err error) {
	color.Red("%s", err.Error())
	fmt.Println()
}

// RunCmd runs a project's building file.
type RunCmd struct {
	Project string `arg:"" help:"Project directory." type:"path"`
}

func (cmd *RunCmd) Run(ctx *Context) error {
	building, env, errs := steps.LoadProject(cmd.Project)
	if len(errs) > 0 {
		for _, e := range errs {
			printDiagnostic(e)
		}
		return errLoadFailed
	}

	in := steps.NewInterpreter(env)
	result := in.RunBuilding(building)
	if result.Err != nil {
		printDiagnostic(result.Err)
		return errRunFailed
	}
	return nil
}

// CheckCmd parses and validates a project without running it.
type CheckCmd struct {
	Project string `arg:"" help:"Project directory." type:"path"`
}

func (cmd *CheckCmd) Run(ctx *Context) error {
	building, env, errs := steps.LoadProject(cmd.Project)
	if len(errs) > 0 {
		for _, e := range errs {
			printDiagnostic(e)
		}
		color.Red("%d problem(s) found.", len(errs))
		return errLoadFailed
	}

	if !ctx.Quiet {
		color.Green("Building '%s' is valid.", building.Name)
		fmt.Printf("  %d step(s) across %d floor(s)\n", len(env.Steps), len(env.Floors))
	}
	return nil
}
