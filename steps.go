// Package steps implements the Steps educational programming language:
// lexer, parser, tree-walking interpreter, project loader, REPL session
// and a stepping debugger. Programs are organized as buildings (entry
// points), floors (groups of steps) and steps (units of work), with
// risers as private helpers inside a step.
package steps

// Version is the engine version reported by the CLI.
const Version = "0.1.0"
