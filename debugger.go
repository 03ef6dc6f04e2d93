// debugger.go: stepping debugger built on the interpreter's statement hook
//
// The Debugger attaches to an Interpreter and pauses execution between
// statements according to its mode. The program runs on one goroutine
// and blocks inside the hook while paused; a controlling goroutine (the
// CLI or an IDE frontend) drives it with Resume, SetMode and Stop.
package steps

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// DebugMode selects how the debugger decides where to pause.
type DebugMode int

const (
	// ModePaused pauses before every statement until the mode changes.
	ModePaused DebugMode = iota
	// ModeStepInto pauses at the next statement, entering calls.
	ModeStepInto
	// ModeStepOver pauses at the next statement at or above the
	// current call depth.
	ModeStepOver
	// ModeStepOut runs until the current step returns.
	ModeStepOut
	// ModeRun runs until a breakpoint is hit.
	ModeRun
)

func (m DebugMode) String() string {
	switch m {
	case ModePaused:
		return "paused"
	case ModeStepInto:
		return "step-into"
	case ModeStepOver:
		return "step-over"
	case ModeStepOut:
		return "step-out"
	case ModeRun:
		return "run"
	}
	return "unknown"
}

// Breakpoint marks a source line where execution pauses.
type Breakpoint struct {
	File string
	Line int
}

// VariableInfo is one variable binding as shown in the debugger.
type VariableInfo struct {
	Name    string
	Type    string
	Value   string
	Changed bool
}

// StackFrame is one entry of the call stack, deepest last.
type StackFrame struct {
	Name      string
	File      string
	Line      int
	Variables []VariableInfo
}

// DebugSnapshot captures execution state at a pause.
type DebugSnapshot struct {
	File      string
	Line      int
	CallStack []StackFrame
	Globals   []VariableInfo
}

// DebugEventType classifies debugger callbacks.
type DebugEventType string

const (
	EventPaused   DebugEventType = "paused"
	EventFinished DebugEventType = "finished"
	EventError    DebugEventType = "error"
)

// DebugEvent is delivered to the event callback whenever the debugger
// pauses, finishes or fails.
type DebugEvent struct {
	Type     DebugEventType
	Snapshot DebugSnapshot
	Message  string
}

// DebugEventCallback receives debugger events. It is called on the
// execution goroutine while the program is blocked.
type DebugEventCallback func(DebugEvent)

// errStopped aborts a run through the statement hook when Stop is
// called. It never surfaces to the caller of Run.
var errStopped = errors.New("debugger stopped")

// Debugger drives an Interpreter one statement at a time.
type Debugger struct {
	in      *Interpreter
	onEvent DebugEventCallback

	mu          sync.Mutex
	mode        DebugMode
	breakpoints map[Breakpoint]bool
	stepDepth   int

	resume   chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
	running  bool

	prevValues map[string]string
	currentLoc SourceLocation
}

// NewDebugger attaches a debugger to the interpreter. The event
// callback may be nil.
func NewDebugger(in *Interpreter, onEvent DebugEventCallback) *Debugger {
	if onEvent == nil {
		onEvent = func(DebugEvent) {}
	}
	d := &Debugger{
		in:          in,
		onEvent:     onEvent,
		mode:        ModePaused,
		breakpoints: map[Breakpoint]bool{},
		resume:      make(chan struct{}, 1),
		stopped:     make(chan struct{}),
		prevValues:  map[string]string{},
	}
	in.Hook = d.beforeStatement
	return d
}

// SetMode changes how execution proceeds after the next Resume. For
// step-over and step-out the current call depth becomes the reference
// depth.
func (d *Debugger) SetMode(mode DebugMode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	if mode == ModeStepOver || mode == ModeStepOut {
		d.stepDepth = len(d.in.Env.CallStack)
	}
}

// Mode returns the current debug mode.
func (d *Debugger) Mode() DebugMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Resume unblocks a paused program.
func (d *Debugger) Resume() {
	select {
	case d.resume <- struct{}{}:
	default:
	}
}

// Stop aborts the run. A paused program is unblocked first.
func (d *Debugger) Stop() {
	d.stopOnce.Do(func() { close(d.stopped) })
}

// IsRunning reports whether a program is currently executing.
func (d *Debugger) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// AddBreakpoint registers a breakpoint at file:line.
func (d *Debugger) AddBreakpoint(file string, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints[Breakpoint{File: file, Line: line}] = true
}

// RemoveBreakpoint deletes the breakpoint at file:line if present.
func (d *Debugger) RemoveBreakpoint(file string, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.breakpoints, Breakpoint{File: file, Line: line})
}

// ClearBreakpoints removes every breakpoint.
func (d *Debugger) ClearBreakpoints() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints = map[Breakpoint]bool{}
}

// Breakpoints lists registered breakpoints sorted by file then line.
func (d *Debugger) Breakpoints() []Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	bps := make([]Breakpoint, 0, len(d.breakpoints))
	for bp := range d.breakpoints {
		bps = append(bps, bp)
	}
	sort.Slice(bps, func(i, j int) bool {
		if bps[i].File != bps[j].File {
			return bps[i].File < bps[j].File
		}
		return bps[i].Line < bps[j].Line
	})
	return bps
}

// HasBreakpoint reports whether a breakpoint exists at file:line.
func (d *Debugger) HasBreakpoint(file string, line int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.breakpoints[Breakpoint{File: file, Line: line}]
}

// Run executes a building under debugger control. It blocks until the
// program finishes or Stop is called, so callers usually run it on its
// own goroutine. A stopped run reports success with no error.
func (d *Debugger) Run(building *Building) ExecutionResult {
	d.mu.Lock()
	d.running = true
	d.mu.Unlock()

	result := d.in.RunBuilding(building)

	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	if errors.Is(result.Err, errStopped) {
		result = ExecutionResult{Success: true, OutputLines: result.OutputLines}
	}
	if result.Err != nil {
		d.onEvent(DebugEvent{Type: EventError, Snapshot: d.snapshot(), Message: result.Err.Error()})
	} else {
		d.onEvent(DebugEvent{Type: EventFinished, Snapshot: d.snapshot()})
	}
	return result
}

// beforeStatement is the interpreter hook. It blocks while paused.
func (d *Debugger) beforeStatement(stmt Stmt, depth int) error {
	select {
	case <-d.stopped:
		return errStopped
	default:
	}

	d.mu.Lock()
	d.currentLoc = stmt.Loc()
	pause := d.shouldPauseLocked(stmt.Loc(), depth)
	d.mu.Unlock()

	if !pause {
		return nil
	}

	d.onEvent(DebugEvent{Type: EventPaused, Snapshot: d.snapshot()})

	select {
	case <-d.resume:
		return nil
	case <-d.stopped:
		return errStopped
	}
}

func (d *Debugger) shouldPauseLocked(loc SourceLocation, depth int) bool {
	if d.breakpoints[Breakpoint{File: loc.File, Line: loc.Line}] {
		return true
	}
	switch d.mode {
	case ModePaused, ModeStepInto:
		return true
	case ModeStepOver:
		return depth <= d.stepDepth
	case ModeStepOut:
		return depth < d.stepDepth
	case ModeRun:
		return false
	}
	return false
}

// Snapshot reports the current execution state. Safe to call from the
// controlling goroutine while the program is paused.
func (d *Debugger) Snapshot() DebugSnapshot {
	return d.snapshot()
}

func (d *Debugger) snapshot() DebugSnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := DebugSnapshot{
		File:    d.currentLoc.File,
		Line:    d.currentLoc.Line,
		Globals: d.scopeVariablesLocked(0),
	}

	env := d.in.Env
	for i, name := range env.CallStack {
		frame := StackFrame{
			Name:      name,
			File:      d.currentLoc.File,
			Variables: d.scopeVariablesLocked(i + 1),
		}
		if i == len(env.CallStack)-1 {
			frame.Line = d.currentLoc.Line
		}
		snap.CallStack = append(snap.CallStack, frame)
	}
	return snap
}

func (d *Debugger) scopeVariablesLocked(index int) []VariableInfo {
	scope := d.in.Env.ScopeAt(index)
	if scope == nil {
		return nil
	}
	vars := scope.Variables()

	names := make([]string, 0, len(vars))
	for n := range vars {
		names = append(names, n)
	}
	sort.Strings(names)

	infos := make([]VariableInfo, 0, len(names))
	for _, n := range names {
		v := vars[n]
		repr := debugValue(v)
		key := fmt.Sprintf("%d:%s", index, n)
		changed := d.prevValues[key] != repr
		d.prevValues[key] = repr
		infos = append(infos, VariableInfo{
			Name:    n,
			Type:    v.TypeName(),
			Value:   repr,
			Changed: changed,
		})
	}
	return infos
}

// debugValue formats a value for debugger display. Long lists and
// tables are truncated.
func debugValue(v Value) string {
	switch v.Tag {
	case TagNothing:
		return "nothing"
	case TagText:
		return fmt.Sprintf("%q", v.Str)
	case TagBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TagNumber:
		return formatNumber(v.Num)
	case TagList:
		elems := v.List.Elements
		if len(elems) <= 5 {
			parts := make([]string, len(elems))
			for i, e := range elems {
				parts[i] = debugValue(e)
			}
			return "[" + strings.Join(parts, ", ") + "]"
		}
		parts := make([]string, 3)
		for i := 0; i < 3; i++ {
			parts[i] = debugValue(elems[i])
		}
		return fmt.Sprintf("[%s, ... (%d items)]", strings.Join(parts, ", "), len(elems))
	case TagTable:
		keys := v.Table.Keys
		shown := keys
		truncated := false
		if len(keys) > 3 {
			shown = keys[:2]
			truncated = true
		}
		parts := make([]string, len(shown))
		for i, k := range shown {
			parts[i] = fmt.Sprintf("%q: %s", k, debugValue(v.Table.Items[k]))
		}
		if truncated {
			return fmt.Sprintf("[%s, ... (%d entries)]", strings.Join(parts, ", "), len(keys))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return v.Display()
}
