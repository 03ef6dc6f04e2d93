package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"

	steps "github.com/CFFinch62/Steps-sub001"
)

// DebugCmd runs a project under the stepping debugger with a terminal
// prompt between statements.
type DebugCmd struct {
	Project string   `arg:"" help:"Project directory." type:"path"`
	Break   []string `help:"Initial breakpoints as file:line." short:"b"`
}

func (cmd *DebugCmd) Run(ctx *Context) error {
	building, env, errs := steps.LoadProject(cmd.Project)
	if len(errs) > 0 {
		for _, e := range errs {
			printDiagnostic(e)
		}
		return errLoadFailed
	}

	events := make(chan steps.DebugEvent)
	in := steps.NewInterpreter(env)
	dbg := steps.NewDebugger(in, func(ev steps.DebugEvent) {
		events <- ev
	})
	dbg.SetMode(steps.ModeStepInto)

	for _, spec := range cmd.Break {
		file, line, err := cmd.parseBreakpoint(spec)
		if err != nil {
			color.Red("%v", err)
			return errRunFailed
		}
		dbg.AddBreakpoint(file, line)
	}

	fmt.Println("Steps debugger. Commands: step, next, out, continue, break <file>:<line>, vars, stack, quit.")

	done := make(chan steps.ExecutionResult, 1)
	go func() {
		done <- dbg.Run(building)
	}()

	reader := bufio.NewReader(os.Stdin)
	for ev := range events {
		switch ev.Type {
		case steps.EventFinished:
			<-done
			if !ctx.Quiet {
				color.Green("Program finished.")
			}
			return nil
		case steps.EventError:
			<-done
			printDiagnostic(fmt.Errorf("%s", ev.Message))
			return errRunFailed
		case steps.EventPaused:
			cmd.showPause(ev.Snapshot)
			if !cmd.prompt(reader, dbg, ev.Snapshot) {
				dbg.Stop()
				// Drain until the run winds down.
				go func() {
					for range events {
					}
				}()
				<-done
				return nil
			}
		}
	}
	return nil
}

func (cmd *DebugCmd) showPause(snap steps.DebugSnapshot) {
	color.Cyan("Paused at %s:%d", filepath.Base(snap.File), snap.Line)
	vars := snap.Globals
	if len(snap.CallStack) > 0 {
		vars = snap.CallStack[len(snap.CallStack)-1].Variables
	}
	for _, v := range vars {
		marker := "  "
		if v.Changed {
			marker = " *"
		}
		fmt.Printf("%s %s = %s (%s)\n", marker, v.Name, v.Value, v.Type)
	}
}

// prompt reads commands until one resumes execution. Returns false
// when the user quits.
func (cmd *DebugCmd) prompt(reader *bufio.Reader, dbg *steps.Debugger, snap steps.DebugSnapshot) bool {
	for {
		fmt.Print("(steps) ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			fields = []string{"step"}
		}

		switch fields[0] {
		case "step", "s":
			dbg.SetMode(steps.ModeStepInto)
			dbg.Resume()
			return true
		case "next", "n":
			dbg.SetMode(steps.ModeStepOver)
			dbg.Resume()
			return true
		case "out", "o":
			dbg.SetMode(steps.ModeStepOut)
			dbg.Resume()
			return true
		case "continue", "c":
			dbg.SetMode(steps.ModeRun)
			dbg.Resume()
			return true
		case "break", "b":
			if len(fields) < 2 {
				fmt.Println("usage: break <file>:<line>")
				continue
			}
			file, ln, err := cmd.parseBreakpoint(fields[1])
			if err != nil {
				color.Red("%v", err)
				continue
			}
			dbg.AddBreakpoint(file, ln)
			fmt.Printf("Breakpoint set at %s:%d\n", filepath.Base(file), ln)
		case "vars", "v":
			for _, frame := range snap.CallStack {
				fmt.Printf("%s:\n", frame.Name)
				for _, v := range frame.Variables {
					fmt.Printf("    %s = %s (%s)\n", v.Name, v.Value, v.Type)
				}
			}
			fmt.Println("globals:")
			for _, v := range snap.Globals {
				fmt.Printf("    %s = %s (%s)\n", v.Name, v.Value, v.Type)
			}
		case "stack", "bt":
			if len(snap.CallStack) == 0 {
				fmt.Println("(building level)")
				continue
			}
			for i := len(snap.CallStack) - 1; i >= 0; i-- {
				fmt.Printf("  %d: %s\n", i, snap.CallStack[i].Name)
			}
		case "quit", "q":
			return false
		default:
			fmt.Println("Commands: step, next, out, continue, break <file>:<line>, vars, stack, quit.")
		}
	}
}

// parseBreakpoint resolves "<file>:<line>" against the project
// directory so it matches the paths the loader parsed with.
func (cmd *DebugCmd) parseBreakpoint(spec string) (string, int, error) {
	idx := strings.LastIndex(spec, ":")
	if idx <= 0 {
		return "", 0, fmt.Errorf("invalid breakpoint %q, want <file>:<line>", spec)
	}
	line, err := strconv.Atoi(spec[idx+1:])
	if err != nil || line < 1 {
		return "", 0, fmt.Errorf("invalid breakpoint line in %q", spec)
	}
	file := spec[:idx]
	if !filepath.IsAbs(file) {
		abs, err := filepath.Abs(filepath.Join(cmd.Project, file))
		if err == nil {
			file = abs
		}
	}
	return file, line, nil
}
