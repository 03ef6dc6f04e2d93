package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/peterh/liner"

	steps "github.com/CFFinch62/Steps-sub001"
)

const (
	historyFile = ".steps_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

var helpText = `
Session commands:
  help   - Show this help message
  exit   - Exit the session (also: quit)
  clear  - Clear the screen
  vars   - Show all defined variables
  reset  - Clear all variables and start fresh

Steps basics:
  set x to 42                  - Create/assign variable
  display x                    - Output a value
  set y to x + 10              - Math operations
  set name to "Steps"          - Text values
  display "Hi " added to name  - Text concatenation

  if x is greater than 10      - Conditionals
      display "big"            (indent with spaces, blank line to end)

  repeat 3 times               - Loops
      display "hello"          (indent with spaces, blank line to end)

  set nums to [1, 2, 3]        - Lists
  add 4 to nums

  set person to ["name": "Jo", "age": 30]  - Tables
  display person["name"]
`

// ReplCmd starts the interactive session.
type ReplCmd struct{}

func (cmd *ReplCmd) Run(ctx *Context) error {
	fmt.Printf("Steps REPL v%s\n", steps.ReplVersion)
	fmt.Println("Type 'help' for commands, 'exit' to quit.")
	fmt.Println()

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	session := steps.NewREPLSession()
	session.Env.Input = func() (string, error) {
		return ln.Prompt("")
	}

	for {
		prompt := promptMain
		if session.InBlock() {
			prompt = promptCont
		}

		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			fmt.Println("\nGoodbye!")
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			fmt.Println("(Use 'exit' to quit)")
			session.Reset()
			continue
		}
		if err != nil {
			return err
		}

		if !session.InBlock() {
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "exit", "quit":
				fmt.Println("Goodbye!")
				return nil
			case "help":
				fmt.Println(helpText)
				continue
			case "clear":
				fmt.Print("\033[2J\033[H")
				continue
			case "vars":
				printSessionVariables(session)
				continue
			case "reset":
				session.Reset()
				fmt.Println("Environment cleared.")
				continue
			}
		}

		source, ready := session.Feed(line)
		if !ready {
			continue
		}
		if strings.TrimSpace(source) != "" {
			ln.AppendHistory(strings.ReplaceAll(source, "\n", " "))
		}
		if err := session.Eval(source); err != nil {
			printSessionError(err)
		}
	}
}

func printSessionVariables(session *steps.REPLSession) {
	vars := session.Variables()
	if len(vars) == 0 {
		fmt.Println("No variables defined.")
		return
	}
	fmt.Println("Variables:")
	for _, v := range vars {
		fmt.Printf("  %s = %s (%s)\n", v.Name, v.Value, v.Type)
	}
}

// printSessionError keeps interactive errors to one message line and
// an optional hint instead of the full file diagnostic.
func printSessionError(err error) {
	msg, hint := err.Error(), ""
	switch e := err.(type) {
	case *steps.StepsError:
		msg, hint = e.Message, e.Hint
	case *steps.LexerError:
		msg, hint = e.Message, e.Hint
	case *steps.ParseError:
		msg, hint = e.Message, e.Hint
	case *steps.TypeError:
		msg, hint = e.Message, e.Hint
	case *steps.RuntimeError:
		msg, hint = e.Message, e.Hint
	}
	color.Red("Error: %s", msg)
	if hint != "" {
		color.Yellow("Hint: %s", hint)
	}
}
