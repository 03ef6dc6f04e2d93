// env.go: scopes and registries for Steps execution
//
// The Environment holds the scope stack, the step and floor registries
// and the current call stack. Input and output go through replaceable
// handler functions so the REPL, the debugger and tests can intercept
// them.
package steps

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// StepDef is a registered step.
type StepDef struct {
	Name         string
	BelongsTo    string
	Parameters   []string
	Returns      string
	Declarations []Declaration
	Body         []Stmt
	Risers       map[string]*RiserDef
	FilePath     string
}

// RiserDef is a private helper registered inside a step.
type RiserDef struct {
	Name         string
	Parameters   []string
	Returns      string
	Declarations []Declaration
	Body         []Stmt
}

// FloorDef is a registered floor.
type FloorDef struct {
	Name     string
	Steps    []string
	FilePath string
}

// Scope is one frame of variable bindings with a link to its parent.
type Scope struct {
	vars   map[string]Value
	fixed  map[string]bool
	parent *Scope
}

// NewScope creates a scope chained to parent (nil for the global scope).
func NewScope(parent *Scope) *Scope {
	return &Scope{
		vars:   map[string]Value{},
		fixed:  map[string]bool{},
		parent: parent,
	}
}

// Get looks the name up through the scope chain. ok is false when the
// variable is undefined everywhere.
func (s *Scope) Get(name string) (Value, bool) {
	if v, ok := s.vars[name]; ok {
		return v, true
	}
	if s.parent != nil {
		return s.parent.Get(name)
	}
	return Value{}, false
}

// Set binds name in this scope.
func (s *Scope) Set(name string, v Value, isFixed bool) {
	s.vars[name] = v
	if isFixed {
		s.fixed[name] = true
	}
}

// IsFixed reports whether the name is locked anywhere in the chain.
func (s *Scope) IsFixed(name string) bool {
	if s.fixed[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.IsFixed(name)
	}
	return false
}

// Exists reports whether the name is bound in this scope or any parent.
func (s *Scope) Exists(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// ExistsLocally ignores parent scopes.
func (s *Scope) ExistsLocally(name string) bool {
	_, ok := s.vars[name]
	return ok
}

// Names returns every name bound in the chain, innermost first.
func (s *Scope) Names() []string {
	var names []string
	seen := map[string]bool{}
	for sc := s; sc != nil; sc = sc.parent {
		for n := range sc.vars {
			if !seen[n] {
				seen[n] = true
				names = append(names, n)
			}
		}
	}
	return names
}

// Variables returns a copy of the bindings local to this scope,
// ignoring parents.
func (s *Scope) Variables() map[string]Value {
	out := make(map[string]Value, len(s.vars))
	for n, v := range s.vars {
		out[n] = v
	}
	return out
}

// InputFunc supplies one line of user input.
type InputFunc func() (string, error)

// OutputFunc receives one line of program output.
type OutputFunc func(string)

// Environment is the complete runtime state shared by the interpreter,
// the REPL and the debugger.
type Environment struct {
	scopes       []*Scope
	Steps        map[string]*StepDef
	Floors       map[string]*FloorDef
	BuildingName string

	CurrentStep string
	CallStack   []string

	// Interactive marks a REPL session: undefined names get an
	// assignment hint, problem_message defaults to nothing, and
	// step calls are rejected.
	Interactive bool

	Input  InputFunc
	Output OutputFunc
}

// NewEnvironment creates an environment with a single global scope and
// stdin/stdout handlers.
func NewEnvironment() *Environment {
	stdin := bufio.NewReader(os.Stdin)
	return &Environment{
		scopes: []*Scope{NewScope(nil)},
		Steps:  map[string]*StepDef{},
		Floors: map[string]*FloorDef{},
		Input: func() (string, error) {
			line, err := stdin.ReadString('\n')
			return strings.TrimRight(line, "\r\n"), err
		},
		Output: func(s string) { fmt.Println(s) },
	}
}

// CurrentScope returns the innermost scope.
func (e *Environment) CurrentScope() *Scope {
	return e.scopes[len(e.scopes)-1]
}

// GlobalScope returns the outermost scope.
func (e *Environment) GlobalScope() *Scope {
	return e.scopes[0]
}

// ScopeCount reports how many scope frames are active.
func (e *Environment) ScopeCount() int {
	return len(e.scopes)
}

// ScopeAt returns scope frame i (0 is the global scope), or nil when
// the index is out of range.
func (e *Environment) ScopeAt(i int) *Scope {
	if i < 0 || i >= len(e.scopes) {
		return nil
	}
	return e.scopes[i]
}

// PushScope enters a new scope frame.
func (e *Environment) PushScope() {
	e.scopes = append(e.scopes, NewScope(e.CurrentScope()))
}

// PopScope leaves the innermost scope. The global scope is never popped.
func (e *Environment) PopScope() {
	if len(e.scopes) > 1 {
		e.scopes = e.scopes[:len(e.scopes)-1]
	}
}

// GetVariable resolves a name, producing an E401 with a spelling
// suggestion when possible.
func (e *Environment) GetVariable(name string, loc SourceLocation) (Value, error) {
	if v, ok := e.CurrentScope().Get(name); ok {
		return v, nil
	}
	if e.Interactive {
		if name == "problem_message" {
			return Nothing(), nil
		}
		err := UndefinedVariableError(name, loc)
		err.Hint = fmt.Sprintf("Try: set %s to some_value", name)
		return Value{}, err
	}
	err := UndefinedVariableError(name, loc)
	if similar := e.similarNames(name, 3); len(similar) > 0 {
		err.Hint = fmt.Sprintf("Did you mean '%s'?", similar[0])
	}
	return Value{}, err
}

// SetVariable assigns a variable, rejecting reassignment of fixed names
// with E403. Declarations bypass the fixed check so the initial value
// can be stored.
func (e *Environment) SetVariable(name string, v Value, loc SourceLocation, isDeclaration, isFixed bool) error {
	if !isDeclaration && e.CurrentScope().IsFixed(name) {
		return runtimeError(E403, loc, "name", name)
	}
	e.CurrentScope().Set(name, v, isFixed)
	return nil
}

// DeclareVariable creates a variable with the zero value of its declared
// type.
func (e *Environment) DeclareVariable(name, typeName string, isFixed bool) {
	var v Value
	switch typeName {
	case "number":
		v = NumberOf(0)
	case "text":
		v = TextOf("")
	case "boolean":
		v = BoolOf(false)
	case "list":
		v = ListOf()
	case "table":
		v = NewTable()
	default:
		v = Nothing()
	}
	e.CurrentScope().Set(name, v, isFixed)
}

/// similarNames suggests variables that might be misspellings of name:
// same first letter, or one contains the other.
func (e *Environment) similarNames(name string, max int) []string {
	if name == "" {
		return nil
	}
	lower := strings.ToLower(name)
	var similar []string
	for _, n := range e.CurrentScope().Names() {
		nl := strings.ToLower(n)
		if strings.HasPrefix(nl, lower[:1]) || strings.Contains(nl, lower) {
			similar = append(similar, n)
			if len(similar) >= max {
				break
			}
		}
	}
	return similar
}

// RegisterStep adds or replaces a step definition.
func (e *Environment) RegisterStep(step *StepDef) {
	e.Steps[step.Name] = step
}

// GetStep looks a step up by name, producing E402 with the available
// step names when missing.
func (e *Environment) GetStep(name string, loc SourceLocation) (*StepDef, error) {
	if step, ok := e.Steps[name]; ok {
		return step, nil
	}
	if e.Interactive {
		err := runtimeError(E405, loc, "name", name)
		err.Message = fmt.Sprintf("Cannot call step '%s' in the REPL.", name)
		err.Hint = "The REPL is for learning basics. Run a project to work with steps."
		return nil, err
	}
	available := make([]string, 0, 5)
	for n := range e.Steps {
		available = append(available, n)
		if len(available) == 5 {
			break
		}
	}
	sort.Strings(available)
	suggestion := ""
	if len(available) > 0 {
		suggestion = available[0]
	}
	return nil, UndefinedStepError(name, loc, suggestion, strings.Join(available, ", "))
}

// StepExists reports whether a step is registered.
func (e *Environment) StepExists(name string) bool {
	_, ok := e.Steps[name]
	return ok
}

// RegisterFloor adds or replaces a floor definition.
func (e *Environment) RegisterFloor(floor *FloorDef) {
	e.Floors[floor.Name] = floor
}

// GetFloor returns a floor definition or nil.
func (e *Environment) GetFloor(name string) *FloorDef {
	return e.Floors[name]
}

// EnterStep pushes a frame onto the call stack.
func (e *Environment) EnterStep(name string) {
	e.CallStack = append(e.CallStack, name)
	e.CurrentStep = name
}

// ExitStep pops the innermost call frame.
func (e *Environment) ExitStep() {
	if len(e.CallStack) > 0 {
		e.CallStack = e.CallStack[:len(e.CallStack)-1]
	}
	if len(e.CallStack) > 0 {
		e.CurrentStep = e.CallStack[len(e.CallStack)-1]
	} else {
		e.CurrentStep = ""
	}
}

// RecursionCount returns how many frames of the call stack belong to the
// named step.
func (e *Environment) RecursionCount(name string) int {
	count := 0
	for _, s := range e.CallStack {
		if s == name {
			count++
		}
	}
	return count
}

// CallStackString formats the call stack for diagnostics.
func (e *Environment) CallStackString() string {
	if len(e.CallStack) == 0 {
		return "(at top level)"
	}
	return strings.Join(e.CallStack, " -> ")
}
