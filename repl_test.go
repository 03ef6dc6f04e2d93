// repl_test.go
package steps

import (
	"strings"
	"testing"
)

func newTestSession() (*REPLSession, *[]string) {
	session := NewREPLSession()
	var output []string
	session.Env.Output = func(s string) { output = append(output, s) }
	return session, &output
}

func mustEval(t *testing.T, session *REPLSession, source string) {
	t.Helper()
	if err := session.Eval(source); err != nil {
		t.Fatalf("eval %q: %v", source, err)
	}
}

func Test_REPL_VariablesPersistAcrossInputs(t *testing.T) {
	session, output := newTestSession()

	mustEval(t, session, "set x to 41")
	mustEval(t, session, "display x + 1")

	if len(*output) != 1 || (*output)[0] != "42" {
		t.Fatalf("got output %v, want [42]", *output)
	}
}

func Test_REPL_UndefinedVariableHint(t *testing.T) {
	session, _ := newTestSession()

	err := session.Eval("display y")
	if err == nil {
		t.Fatalf("expected an error for undefined variable")
	}
	re, ok := err.(*RuntimeError)
	if !ok || re.Code != E401 {
		t.Fatalf("expected E401, got %T: %v", err, err)
	}
	if re.Hint != "Try: set y to some_value" {
		t.Fatalf("got hint %q", re.Hint)
	}
}

func Test_REPL_ProblemMessageIsNothing(t *testing.T) {
	session, output := newTestSession()

	// Outside an attempt block, problem_message resolves to nothing
	// instead of erroring.
	mustEval(t, session, "display problem_message")
	if len(*output) != 1 || (*output)[0] != "nothing" {
		t.Fatalf("got output %v", *output)
	}
}

func Test_REPL_StepCallsRejected(t *testing.T) {
	session, _ := newTestSession()

	err := session.Eval("call my_step")
	if err == nil {
		t.Fatalf("expected an error for a step call")
	}
	re, ok := err.(*RuntimeError)
	if !ok || re.Code != E405 {
		t.Fatalf("expected E405, got %T: %v", err, err)
	}
	if !strings.Contains(re.Message, "Cannot call step 'my_step' in the REPL.") {
		t.Fatalf("got message %q", re.Message)
	}
}

func Test_REPL_ParseErrorReportedBeforeExecution(t *testing.T) {
	session, output := newTestSession()

	err := session.Eval("set to")
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected a parse error, got %T: %v", err, err)
	}
	if len(*output) != 0 {
		t.Fatalf("nothing should have executed, got output %v", *output)
	}
}

func Test_REPL_NeedsContinuation(t *testing.T) {
	cases := []struct {
		line string
		want bool
	}{
		{"if x is greater than 1", true},
		{"otherwise", true},
		{"otherwise if x is 2", true},
		{"repeat 3 times", true},
		{"attempt:", true},
		{"set x to 1", false},
		{"display x", false},
		{"", false},
	}
	for _, c := range cases {
		if got := NeedsContinuation(c.line); got != c.want {
			t.Fatalf("NeedsContinuation(%q) = %v, want %v", c.line, got, c.want)
		}
	}
}

func Test_REPL_MultilineBlock(t *testing.T) {
	session, output := newTestSession()

	mustEval(t, session, "set x to 5")

	if _, ready := session.Feed("if x is greater than 3"); ready {
		t.Fatalf("block opener should start buffering")
	}
	if !session.InBlock() {
		t.Fatalf("session should be in a block")
	}
	if _, ready := session.Feed("    display \"big\""); ready {
		t.Fatalf("indented body line should keep buffering")
	}

	source, ready := session.Feed("")
	if !ready {
		t.Fatalf("blank line should flush the block")
	}
	if session.InBlock() {
		t.Fatalf("buffer should be empty after the flush")
	}
	mustEval(t, session, source)

	if len(*output) != 1 || (*output)[0] != "big" {
		t.Fatalf("got output %v, want [big]", *output)
	}
}

func Test_REPL_SimpleLineIsImmediatelyReady(t *testing.T) {
	session, _ := newTestSession()
	source, ready := session.Feed("set x to 1")
	if !ready || source != "set x to 1" {
		t.Fatalf("plain statements run immediately, got (%q, %v)", source, ready)
	}
}

func Test_REPL_Reset(t *testing.T) {
	session, output := newTestSession()

	mustEval(t, session, "set x to 1")
	session.Feed("if x is 1")
	session.Reset()

	if session.InBlock() {
		t.Fatalf("reset should discard buffered input")
	}
	err := session.Eval("display x")
	re, ok := err.(*RuntimeError)
	if !ok || re.Code != E401 {
		t.Fatalf("reset should clear variables, got %v", err)
	}
	_ = output
}

func Test_REPL_ResetKeepsIOHandlers(t *testing.T) {
	session, output := newTestSession()
	session.Reset()

	mustEval(t, session, `display "still here"`)
	if len(*output) != 1 || (*output)[0] != "still here" {
		t.Fatalf("output handler should survive reset, got %v", *output)
	}
}

func Test_REPL_VariablesListing(t *testing.T) {
	session, _ := newTestSession()

	mustEval(t, session, `set name to "Jo"`)
	mustEval(t, session, "set count to 3")
	mustEval(t, session, "set items to [1, 2]")

	vars := session.Variables()
	if len(vars) != 3 {
		t.Fatalf("expected 3 variables, got %v", vars)
	}
	// Sorted by name: count, items, name.
	if vars[0].Name != "count" || vars[0].Value != "3" || vars[0].Type != "number" {
		t.Fatalf("count: %+v", vars[0])
	}
	if vars[1].Name != "items" || vars[1].Value != "[1, 2]" {
		t.Fatalf("items: %+v", vars[1])
	}
	if vars[2].Name != "name" || vars[2].Value != "Jo" || vars[2].Type != "text" {
		t.Fatalf("name shows unquoted text: %+v", vars[2])
	}
}

func Test_REPL_AttemptWorksInSession(t *testing.T) {
	session, output := newTestSession()

	source := strings.Join([]string{
		"attempt:",
		"    display 1 / 0",
		"if unsuccessful:",
		"    display problem_message",
	}, "\n")
	mustEval(t, session, source)

	if len(*output) != 1 || (*output)[0] != "Cannot divide by zero." {
		t.Fatalf("got output %v", *output)
	}
}
