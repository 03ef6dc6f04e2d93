// interp.go: tree-walking execution of Steps programs
//
// The interpreter walks the syntax tree statement by statement. Control
// flow (return, exit) travels as an explicit outcome value rather than
// panics, so every exit path is visible in the signatures. A statement
// hook runs before each statement; the debugger attaches there.
package steps

import "strconv"

const (
	maxRecursionDepth = 100
	maxLoopIterations = 10000
)

type flowKind int

const (
	flowNone flowKind = iota
	flowReturn
	flowExit
)

// outcome carries non-error control flow out of a statement.
type outcome struct {
	kind  flowKind
	value Value
}

var proceed = outcome{kind: flowNone}

// ExecutionResult summarizes one program run.
type ExecutionResult struct {
	Success     bool
	ReturnValue Value
	Err         error
	OutputLines []string
}

// StmtHook runs before each statement. Returning an error aborts
// execution; the debugger uses this to pause and to stop runs.
type StmtHook func(stmt Stmt, depth int) error

// Interpreter executes Steps syntax trees against an Environment.
type Interpreter struct {
	Env *Environment

	// Hook is invoked before every statement when non-nil.
	Hook StmtHook

	outputLines []string
	riserStack  []map[string]*RiserDef
}

// NewInterpreter wraps an environment, capturing its output lines as a
// side channel for tests and the debugger.
func NewInterpreter(env *Environment) *Interpreter {
	if env == nil {
		env = NewEnvironment()
	}
	in := &Interpreter{Env: env}
	original := env.Output
	env.Output = func(s string) {
		in.outputLines = append(in.outputLines, s)
		original(s)
	}
	return in
}

// OutputLines returns everything displayed since the last run started.
func (in *Interpreter) OutputLines() []string {
	out := make([]string, len(in.outputLines))
	copy(out, in.outputLines)
	return out
}

// RunBuilding executes a building program top to bottom.
func (in *Interpreter) RunBuilding(building *Building) ExecutionResult {
	in.outputLines = nil
	in.Env.BuildingName = building.Name

	out, err := in.execBlock(building.Body)
	if err != nil {
		return ExecutionResult{Success: false, Err: err, OutputLines: in.OutputLines()}
	}

	result := ExecutionResult{Success: true, OutputLines: in.OutputLines()}
	if out.kind == flowReturn {
		result.ReturnValue = out.value
	}
	return result
}

// ExecStatements runs a bare statement list, as the REPL does. A return
// outcome surfaces its value.
func (in *Interpreter) ExecStatements(stmts []Stmt) (Value, error) {
	out, err := in.execBlock(stmts)
	if err != nil {
		return Value{}, err
	}
	if out.kind == flowReturn {
		return out.value, nil
	}
	return Nothing(), nil
}

// CallStep invokes a registered step with arguments and returns its
// result. Native functions are checked when no user step matches.
func (in *Interpreter) CallStep(name string, args []Value, loc SourceLocation) (Value, error) {
	result, _, err := in.invokeStep(name, args, loc)
	return result, err
}

// invokeStep is the call path used inside running programs. exited is
// true when the callee executed an exit statement, which must terminate
// the whole program rather than just the call.
func (in *Interpreter) invokeStep(name string, args []Value, loc SourceLocation) (result Value, exited bool, err error) {
	step, err := in.Env.GetStep(name, loc)
	if err != nil {
		if native, ok := nativeFunctions[name]; ok {
			result, nerr := in.callNative(name, native, args, loc)
			return result, false, nerr
		}
		return Value{}, false, err
	}

	if in.Env.RecursionCount(name) >= maxRecursionDepth {
		e := runtimeError(E408, loc, "step_name", name)
		e.Hint = "Call stack: " + in.Env.CallStackString()
		return Value{}, false, e
	}

	if len(args) != len(step.Parameters) {
		return Value{}, false, arityError("Step", name, step.Parameters, len(args), loc)
	}

	in.Env.PushScope()
	in.Env.EnterStep(name)
	in.riserStack = append(in.riserStack, step.Risers)
	defer func() {
		in.riserStack = in.riserStack[:len(in.riserStack)-1]
		in.Env.ExitStep()
		in.Env.PopScope()
	}()

	for _, decl := range step.Declarations {
		in.Env.DeclareVariable(decl.Name, decl.Type, decl.Fixed)
	}
	for i, param := range step.Parameters {
		if err := in.Env.SetVariable(param, args[i], loc, true, false); err != nil {
			return Value{}, false, err
		}
	}

	out, err := in.execBlock(step.Body)
	if err != nil {
		return Value{}, false, err
	}
	switch out.kind {
	case flowReturn:
		return out.value, false, nil
	case flowExit:
		return Nothing(), true, nil
	}
	return Nothing(), false, nil
}

func (in *Interpreter) currentRisers() map[string]*RiserDef {
	if len(in.riserStack) == 0 {
		return nil
	}
	return in.riserStack[len(in.riserStack)-1]
}

func (in *Interpreter) callRiser(riser *RiserDef, args []Value, loc SourceLocation) (result Value, exited bool, err error) {
	if len(args) != len(riser.Parameters) {
		return Value{}, false, arityError("Riser", riser.Name, riser.Parameters, len(args), loc)
	}

	in.Env.PushScope()
	defer in.Env.PopScope()

	for _, decl := range riser.Declarations {
		in.Env.DeclareVariable(decl.Name, decl.Type, decl.Fixed)
	}
	for i, param := range riser.Parameters {
		if err := in.Env.SetVariable(param, args[i], loc, true, false); err != nil {
			return Value{}, false, err
		}
	}

	out, err := in.execBlock(riser.Body)
	if err != nil {
		return Value{}, false, err
	}
	switch out.kind {
	case flowReturn:
		return out.value, false, nil
	case flowExit:
		return Nothing(), true, nil
	}
	return Nothing(), false, nil
}

func arityError(kind, name string, params []string, got int, loc SourceLocation) *RuntimeError {
	expected := "(none)"
	if len(params) > 0 {
		expected = ""
		for i, p := range params {
			if i > 0 {
				expected += ", "
			}
			expected += p
		}
	}
	e := runtimeError(E409, loc,
		"kind", kind,
		"name", name,
		"expected", strconv.Itoa(len(params)),
		"actual", strconv.Itoa(got))
	e.Hint = "Expected parameters: " + expected
	return e
}

// ---------------------------------------------------------------------------
// Statement execution

func (in *Interpreter) execBlock(stmts []Stmt) (outcome, error) {
	for _, stmt := range stmts {
		out, err := in.execStmt(stmt)
		if err != nil {
			return proceed, err
		}
		if out.kind != flowNone {
			return out, nil
		}
	}
	return proceed, nil
}

func (in *Interpreter) execStmt(stmt Stmt) (outcome, error) {
	if in.Hook != nil {
		if err := in.Hook(stmt, len(in.Env.CallStack)); err != nil {
			return proceed, err
		}
	}

	switch s := stmt.(type) {
	case *DisplayStmt:
		return in.execDisplay(s)
	case *SetStmt:
		return in.execSet(s)
	case *SetIndexStmt:
		return in.execSetIndex(s)
	case *CallStmt:
		return in.execCall(s)
	case *ReturnStmt:
		return in.execReturn(s)
	case *ExitStmt:
		return outcome{kind: flowExit}, nil
	case *IfStmt:
		return in.execIf(s)
	case *RepeatTimesStmt:
		return in.execRepeatTimes(s)
	case *RepeatForEachStmt:
		return in.execRepeatForEach(s)
	case *RepeatWhileStmt:
		return in.execRepeatWhile(s)
	case *AttemptStmt:
		return in.execAttempt(s)
	case *AddToListStmt:
		return in.execAddToList(s)
	case *RemoveFromListStmt:
		return in.execRemoveFromList(s)
	case *NoteStmt:
		return proceed, nil
	default:
		e := runtimeError(E407, stmt.Loc())
		e.Message = "Unknown statement type."
		return proceed, e
	}
}

func (in *Interpreter) execDisplay(s *DisplayStmt) (outcome, error) {
	v, err := in.eval(s.Value)
	if err != nil {
		return proceed, err
	}
	in.Env.Output(v.Display())
	return proceed, nil
}

func (in *Interpreter) execSet(s *SetStmt) (outcome, error) {
	v, err := in.eval(s.Value)
	if err != nil {
		return proceed, err
	}
	return proceed, in.Env.SetVariable(s.Target, v, s.Loc(), false, false)
}

func (in *Interpreter) execSetIndex(s *SetIndexStmt) (outcome, error) {
	container, err := in.Env.GetVariable(s.Target, s.Loc())
	if err != nil {
		return proceed, err
	}
	key, err := in.eval(s.Index)
	if err != nil {
		return proceed, err
	}
	value, err := in.eval(s.Value)
	if err != nil {
		return proceed, err
	}
	return proceed, containerSet(container, key, value, s.Loc())
}

func (in *Interpreter) execCall(s *CallStmt) (outcome, error) {
	args := make([]Value, len(s.Arguments))
	for i, arg := range s.Arguments {
		v, err := in.eval(arg)
		if err != nil {
			return proceed, err
		}
		args[i] = v
	}

	var result Value
	var exited bool
	var err error
	if riser, ok := in.currentRisers()[s.StepName]; ok {
		result, exited, err = in.callRiser(riser, args, s.Loc())
	} else {
		result, exited, err = in.invokeStep(s.StepName, args, s.Loc())
	}
	if err != nil {
		return proceed, err
	}
	if exited {
		return outcome{kind: flowExit}, nil
	}

	if s.ResultTarget != "" {
		return proceed, in.Env.SetVariable(s.ResultTarget, result, s.Loc(), false, false)
	}
	return proceed, nil
}

func (in *Interpreter) execReturn(s *ReturnStmt) (outcome, error) {
	value := Nothing()
	if s.Value != nil {
		v, err := in.eval(s.Value)
		if err != nil {
			return proceed, err
		}
		value = v
	}
	return outcome{kind: flowReturn, value: value}, nil
}

func (in *Interpreter) execIf(s *IfStmt) (outcome, error) {
	cond, err := in.eval(s.If.Condition)
	if err != nil {
		return proceed, err
	}
	if cond.IsTruthy() {
		return in.execBlock(s.If.Body)
	}

	for _, branch := range s.OtherwiseIf {
		cond, err := in.eval(branch.Condition)
		if err != nil {
			return proceed, err
		}
		if cond.IsTruthy() {
			return in.execBlock(branch.Body)
		}
	}

	if s.Otherwise != nil {
		return in.execBlock(s.Otherwise)
	}
	return proceed, nil
}

func (in *Interpreter) execRepeatTimes(s *RepeatTimesStmt) (outcome, error) {
	countVal, err := in.eval(s.Count)
	if err != nil {
		return proceed, err
	}
	if countVal.Tag != TagNumber {
		e := typeErr(E302, s.Loc())
		e.Message = "'repeat ... times' requires a number, got " + countVal.TypeName() + "."
		e.Hint = "The repeat count must be a number."
		return proceed, e
	}

	count := int(countVal.Num)
	for i := 0; i < count; i++ {
		out, err := in.execBlock(s.Body)
		if err != nil {
			return proceed, err
		}
		if out.kind != flowNone {
			return out, nil
		}
	}
	return proceed, nil
}

func (in *Interpreter) execRepeatForEach(s *RepeatForEachStmt) (outcome, error) {
	collection, err := in.eval(s.Collection)
	if err != nil {
		return proceed, err
	}

	var items []Value
	switch collection.Tag {
	case TagList:
		items = append(items, collection.List.Elements...)
	case TagText:
		for _, r := range collection.Str {
			items = append(items, TextOf(string(r)))
		}
	case TagTable:
		for _, k := range collection.Table.Keys {
			items = append(items, TextOf(k))
		}
	default:
		e := typeErr(E302, s.Loc())
		e.Message = "Cannot iterate over " + collection.TypeName() + "."
		e.Hint = "'for each' works with lists, text, and tables."
		return proceed, e
	}

	for _, item := range items {
		in.Env.PushScope()
		in.Env.SetVariable(s.ItemName, item, s.Loc(), true, false)
		out, err := in.execBlock(s.Body)
		in.Env.PopScope()
		if err != nil {
			return proceed, err
		}
		if out.kind != flowNone {
			return out, nil
		}
	}
	return proceed, nil
}

func (in *Interpreter) execRepeatWhile(s *RepeatWhileStmt) (outcome, error) {
	for iterations := 0; ; iterations++ {
		if iterations >= maxLoopIterations {
			return proceed, runtimeError(E410, s.Loc(), "limit", strconv.Itoa(maxLoopIterations))
		}

		cond, err := in.eval(s.Condition)
		if err != nil {
			return proceed, err
		}
		if !cond.IsTruthy() {
			return proceed, nil
		}

		out, err := in.execBlock(s.Body)
		if err != nil {
			return proceed, err
		}
		if out.kind != flowNone {
			return out, nil
		}
	}
}

// execAttempt runs the attempt body, diverting recoverable failures into
// the unsuccessful block with the error bound as problem_message. The
// continue block always runs afterwards.
func (in *Interpreter) execAttempt(s *AttemptStmt) (outcome, error) {
	out, err := in.execBlock(s.Attempt)

	if err != nil {
		if _, ok := err.(recoverable); !ok {
			return proceed, err
		}
		if s.Unsuccessful != nil {
			in.Env.CurrentScope().Set("problem_message", TextOf(errorMessage(err)), false)
			out, uerr := in.execBlock(s.Unsuccessful)
			if uerr != nil {
				return proceed, uerr
			}
			if out.kind != flowNone {
				return out, nil
			}
		}
	} else if out.kind != flowNone {
		return out, nil
	}

	if s.Continue != nil {
		return in.execBlock(s.Continue)
	}
	return proceed, nil
}

func errorMessage(err error) string {
	switch e := err.(type) {
	case *RuntimeError:
		return e.Message
	case *TypeError:
		return e.Message
	case *StepsError:
		return e.Message
	default:
		return err.Error()
	}
}

func (in *Interpreter) execAddToList(s *AddToListStmt) (outcome, error) {
	item, err := in.eval(s.Item)
	if err != nil {
		return proceed, err
	}
	lst, err := in.Env.GetVariable(s.ListName, s.Loc())
	if err != nil {
		return proceed, err
	}
	return proceed, listAdd(lst, item, s.Loc())
}

func (in *Interpreter) execRemoveFromList(s *RemoveFromListStmt) (outcome, error) {
	item, err := in.eval(s.Item)
	if err != nil {
		return proceed, err
	}
	lst, err := in.Env.GetVariable(s.ListName, s.Loc())
	if err != nil {
		return proceed, err
	}
	_, err = listRemove(lst, item, s.Loc())
	return proceed, err
}

// ---------------------------------------------------------------------------
// Convenience entry points

// RunBuilding parses nothing; it executes an already parsed building in
// a fresh environment unless one is supplied.
func RunBuilding(building *Building, env *Environment) ExecutionResult {
	return NewInterpreter(env).RunBuilding(building)
}

// RunSource parses and runs building source code.
func RunSource(source string) ExecutionResult {
	building, errs, err := ParseBuildingSource(source, "<string>")
	if err != nil {
		return ExecutionResult{Success: false, Err: err}
	}
	if len(errs) > 0 {
		return ExecutionResult{Success: false, Err: errs[0]}
	}
	return RunBuilding(building, nil)
}

