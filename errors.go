// errors.go: source locations, error codes, and educational diagnostics
//
// Every error the engine produces carries a code from a closed namespace,
// a human-readable message, an optional location, and (wherever a fix is
// inferable) a hint. Format renders all of that as a deterministic
// multi-line diagnostic with optional source-context lines and a caret
// under the offending column.
//
// Phases are distinguished by wrapper types (LexerError, ParseError,
// TypeError, RuntimeError) that all share the same formatting contract.
// Only runtime-phase errors (RuntimeError, TypeError) are recoverable by
// an attempt/if unsuccessful block; lex and parse errors cannot occur
// during execution.
package steps

import (
	"fmt"
	"strings"
)

// SourceLocation is a position in a source file. Line and Column are
// 1-indexed. EndLine/EndColumn are optional (zero when absent). Never
// mutated after creation.
type SourceLocation struct {
	File      string
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

func (l SourceLocation) String() string {
	if l.EndLine != 0 && l.EndLine != l.Line {
		return fmt.Sprintf("%s:%d:%d-%d:%d", l.File, l.Line, l.Column, l.EndLine, l.EndColumn)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Error codes, organized by category.
const (
	// Structure errors (E001-E099)
	E001 = "E001" // missing building file
	E002 = "E002" // missing floor file
	E003 = "E003" // step not in declared floor
	E004 = "E004" // floor lists missing step

	// Lexer errors (E101-E199)
	E101 = "E101" // invalid character
	E102 = "E102" // bad indentation
	E103 = "E103" // tab character
	E104 = "E104" // unterminated string
	E105 = "E105" // inconsistent indentation

	// Parser errors (E201-E299)
	E201 = "E201" // expected identifier
	E202 = "E202" // expected colon
	E203 = "E203" // expected newline
	E204 = "E204" // expected indent
	E205 = "E205" // expected expression
	E206 = "E206" // missing do section
	E207 = "E207" // unexpected token
	E208 = "E208" // wrong keyword

	// Type errors (E301-E399)
	E301 = "E301" // type mismatch on fixed variable
	E302 = "E302" // invalid operation for types
	E303 = "E303" // cannot iterate non-list
	E304 = "E304" // invalid comparison

	// Runtime errors (E401-E499)
	E401 = "E401" // undefined variable
	E402 = "E402" // undefined step
	E403 = "E403" // reassigning fixed variable
	E404 = "E404" // division by zero
	E405 = "E405" // index out of bounds / step call in REPL
	E406 = "E406" // key not found
	E407 = "E407" // internal error
	E408 = "E408" // maximum recursion depth exceeded
	E409 = "E409" // wrong argument count
	E410 = "E410" // maximum loop iterations exceeded

	// Conversion errors (E501-E599)
	E501 = "E501" // unhandled conversion error
)

type errorTemplate struct {
	message string
	hint    string
}

// Message and hint templates keyed by code. Placeholders ({name}) are
// substituted by MakeError from its key/value arguments.
var errorTemplates = map[string]errorTemplate{
	E001: {
		"No .building file found in project directory.",
		"Every Steps project needs a .building file as its entry point.\n" +
			"Create a file named 'your_project.building' in the project root.",
	},
	E002: {
		"Found step files but no floor definition in '{floor_name}/'.",
		"Every floor folder needs a .floor file listing its steps.\n" +
			"Create '{floor_name}.floor' to declare the steps in this floor.",
	},
	E003: {
		"This step says it belongs to '{expected_floor}', but it's in the '{actual_floor}' folder.",
		"Either:\n" +
			"  - Move this file to a '{expected_floor}' folder, or\n" +
			"  - Change 'belongs to: {actual_floor}'",
	},
	E004: {
		"Step '{step_name}' is listed in floor but file '{step_name}.step' not found.",
		"Either:\n" +
			"  - Create the file '{step_name}.step', or\n" +
			"  - Remove 'step: {step_name}' from the floor definition",
	},
	E101: {
		"Unexpected character '{char}'. Steps doesn't use this symbol.",
		"Check for typos or unsupported characters.",
	},
	E102: {
		"Indentation must use exactly 4 spaces per level. Found {spaces} spaces.",
		"Use 4 spaces for each level of indentation.",
	},
	E103: {
		"Found a tab character. Steps uses 4 spaces for indentation, not tabs.",
		"Configure your editor to insert spaces instead of tabs.",
	},
	E104: {
		"String starting here was never closed.",
		"Add a closing \" at the end of your string.",
	},
	E105: {
		"This line's indentation ({spaces} spaces) doesn't match any previous level.",
		"The current indentation levels are: {levels}\n" +
			"Adjust your indentation to match one of these levels.",
	},
	E201: {
		"Expected a name here, but found '{found}'.",
		"Names must start with a letter or underscore.",
	},
	E202: {
		"Expected ':' after '{keyword}'.",
		"Add a colon: {keyword}:",
	},
	E203: {
		"Expected end of line after '{statement}'.",
		"Put each statement on its own line.",
	},
	E204: {
		"Expected indented code after '{keyword}:'.",
		"Indent the code that should be inside this block by 4 spaces.",
	},
	E205: {
		"Expected a value here (number, text, or variable name).",
		"Examples:\n" +
			"    42          (a number)\n" +
			"    \"hello\"     (text)\n" +
			"    my_variable (a variable)",
	},
	E206: {
		"Every step needs a 'do:' section with its logic.",
		"Add 'do:' before your code:\n\n" +
			"    do:\n" +
			"        your code here",
	},
	E207: {
		"Unexpected '{token}' here.",
		"Check the syntax of your statement.",
	},
	E208: {
		"Steps uses '{correct}' instead of '{found}'.",
		"Try: {correct}",
	},
	E301: {
		"Cannot assign {new_type} to '{variable}' - it was declared as '{declared_type} fixed'.",
		"Once a variable is declared with 'fixed', it can only hold that type.",
	},
	E302: {
		"Cannot {operation} with {left_type} and {right_type}.",
		"Check that the types are compatible for this operation.",
	},
	E303: {
		"Cannot iterate over a {type_name}. 'repeat for each' needs a list.",
		"Example:\n" +
			"    set numbers to [1, 2, 3]\n" +
			"    repeat for each item in numbers",
	},
	E304: {
		"Cannot compare a {type_name} with '{operator}'.",
		"This comparison only works with numbers.",
	},
	E401: {
		"Variable '{name}' has not been defined yet.",
		"Define it first:\n\n" +
			"    set {name} to \"value\"",
	},
	E402: {
		"Step '{name}' does not exist.",
		"Did you mean '{suggestion}'?\n\n" +
			"Available steps: {available}",
	},
	E403: {
		"Cannot change '{name}' because it was declared as 'fixed'.",
		"Fixed variables cannot be reassigned after their initial value is set.",
	},
	E404: {
		"Cannot divide by zero.",
		"Check that your divisor is not zero before dividing.",
	},
	E405: {
		"Index {index} is out of bounds for list of length {length}.",
		"Valid indices are 0 to {max_index}.",
	},
	E406: {
		"Key \"{key}\" not found in table.",
		"Available keys: {available}",
	},
	E407: {
		"Internal error: {details}",
		"This is likely a bug in the Steps interpreter.",
	},
	E408: {
		"Maximum recursion depth exceeded when calling '{step_name}'.",
		"Your step is calling itself too many times. Check for infinite recursion.",
	},
	E409: {
		"{kind} '{name}' expects {expected} argument(s), got {actual}.",
		"Expected parameters: {params}",
	},
	E410: {
		"Maximum loop iterations exceeded ({limit}).",
		"Your loop may be infinite. Check the condition.",
	},
	E501: {
		"Could not convert \"{value}\" to {target_type}.",
		"Use 'attempt' to handle this gracefully:\n\n" +
			"    attempt:\n" +
			"        set number to user_input as number\n" +
			"    if unsuccessful:\n" +
			"        display \"Please enter a valid number\"",
	},
}

// StepsError is the shared core of every engine error.
type StepsError struct {
	Code         string
	Message      string
	File         string
	Line         int
	Column       int
	Hint         string
	ContextLines []string
}

func (e *StepsError) Error() string { return e.Format() }

// Format renders the diagnostic: header with code and location, optional
// context lines with a >>> marker and a column caret, the message, and the
// hint if present.
func (e *StepsError) Format() string {
	var out []string

	if e.File != "" && e.Line > 0 {
		location := e.File + fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			location += fmt.Sprintf(", column %d", e.Column)
		}
		out = append(out, fmt.Sprintf("Error %s in %s:", e.Code, location))
	} else {
		out = append(out, fmt.Sprintf("Error %s:", e.Code))
	}
	out = append(out, "")

	if len(e.ContextLines) > 0 {
		startLine := 1
		if e.Line > 0 {
			startLine = e.Line - len(e.ContextLines)/2
		}
		for i, ctx := range e.ContextLines {
			lineNum := startLine + i
			marker := "   "
			if e.Line > 0 && lineNum == e.Line {
				marker = ">>>"
			}
			out = append(out, fmt.Sprintf("%s %4d | %s", marker, lineNum, ctx))
		}
		if e.Column > 0 {
			out = append(out, strings.Repeat(" ", 11+e.Column)+"^")
		}
		out = append(out, "")
	}

	out = append(out, e.Message)

	if e.Hint != "" {
		out = append(out, "", "Hint: "+e.Hint)
	}

	return strings.Join(out, "\n")
}

// Phase-specific wrappers. They carry no extra state; the type is the
// phase marker.

// StructureError is an error in project layout (missing building,
// floor or step files).
type StructureError struct{ StepsError }

// LexerError is an error raised during tokenization.
type LexerError struct{ StepsError }

// ParseError is an error raised during parsing.
type ParseError struct{ StepsError }

// TypeError is an error in a type operation (operator or conversion
// mismatch). Recoverable by attempt blocks.
type TypeError struct{ StepsError }

// RuntimeError is an error raised during interpretation. Recoverable by
// attempt blocks.
type RuntimeError struct{ StepsError }

// recoverable marks the error kinds an attempt/if unsuccessful block may
// intercept.
type recoverable interface{ recoverableError() }

func (*TypeError) recoverableError()    {}
func (*RuntimeError) recoverableError() {}

// MakeError builds a StepsError from the template for code, substituting
// {placeholder} occurrences in the message and hint from kv pairs
// (key1, val1, key2, val2, ...). Unknown codes still yield a well-formed,
// if generic, diagnostic.
func MakeError(code string, loc SourceLocation, kv ...string) *StepsError {
	tmpl, ok := errorTemplates[code]
	if !ok {
		return &StepsError{
			Code:    code,
			Message: fmt.Sprintf("Unknown error %s", code),
			File:    loc.File,
			Line:    loc.Line,
			Column:  loc.Column,
		}
	}

	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	r := strings.NewReplacer(pairs...)

	return &StepsError{
		Code:    code,
		Message: r.Replace(tmpl.message),
		File:    loc.File,
		Line:    loc.Line,
		Column:  loc.Column,
		Hint:    r.Replace(tmpl.hint),
	}
}

func structureError(code string, loc SourceLocation, kv ...string) *StructureError {
	return &StructureError{*MakeError(code, loc, kv...)}
}

func runtimeError(code string, loc SourceLocation, kv ...string) *RuntimeError {
	return &RuntimeError{*MakeError(code, loc, kv...)}
}

func typeErr(code string, loc SourceLocation, kv ...string) *TypeError {
	return &TypeError{*MakeError(code, loc, kv...)}
}

// Template constructors used across the engine. Each standardizes the
// message wording and populates a hint when a fix is inferable.

// UndefinedVariableError reports E401 for name at loc.
func UndefinedVariableError(name string, loc SourceLocation) *RuntimeError {
	return runtimeError(E401, loc, "name", name)
}

// UndefinedStepError reports E402, including a nearest-name suggestion and
// the available step names when known.
func UndefinedStepError(name string, loc SourceLocation, suggestion, available string) *RuntimeError {
	if suggestion == "" {
		suggestion = name
	}
	if available == "" {
		available = "(none)"
	}
	return runtimeError(E402, loc, "name", name, "suggestion", suggestion, "available", available)
}

// DivisionByZeroError reports E404 at loc.
func DivisionByZeroError(loc SourceLocation) *RuntimeError {
	return runtimeError(E404, loc)
}

// TypeMismatchError reports E301 for assigning newType to a fixed variable
// declared as declaredType.
func TypeMismatchError(variable, declaredType, newType string, loc SourceLocation) *TypeError {
	return typeErr(E301, loc,
		"variable", variable,
		"declared_type", declaredType,
		"new_type", newType)
}
