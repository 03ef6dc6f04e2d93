// errors_test.go
package steps

import (
	"strings"
	"testing"
)

func Test_Errors_MakeError_Substitution(t *testing.T) {
	err := MakeError(E403, SourceLocation{File: "a.step", Line: 4, Column: 9}, "name", "limit")
	if err.Code != E403 {
		t.Fatalf("code %q", err.Code)
	}
	if !strings.Contains(err.Message, "'limit'") {
		t.Fatalf("placeholder not substituted: %q", err.Message)
	}
	if err.File != "a.step" || err.Line != 4 || err.Column != 9 {
		t.Fatalf("location not carried: %+v", err)
	}
}

func Test_Errors_MakeError_MultiplePlaceholders(t *testing.T) {
	err := MakeError(E405, SourceLocation{},
		"index", "7",
		"length", "3",
		"max_index", "2")
	if !strings.Contains(err.Message, "Index 7 is out of bounds for list of length 3.") {
		t.Fatalf("message %q", err.Message)
	}
	if !strings.Contains(err.Hint, "0 to 2") {
		t.Fatalf("hint %q", err.Hint)
	}
}

func Test_Errors_MakeError_UnknownCode(t *testing.T) {
	err := MakeError("E999", SourceLocation{File: "x.step", Line: 1})
	if err.Code != "E999" {
		t.Fatalf("code %q", err.Code)
	}
	if err.Message == "" {
		t.Fatalf("unknown codes still need a message")
	}
}

func Test_Errors_Format_WithLocationAndHint(t *testing.T) {
	err := &StepsError{
		Code:    E401,
		Message: "Variable 'score' has not been created yet.",
		File:    "game.step",
		Line:    12,
		Column:  5,
		Hint:    "Did you mean 'scores'?",
	}
	text := err.Format()

	if !strings.HasPrefix(text, "Error E401 in game.step at line 12, column 5:") {
		t.Fatalf("header wrong:\n%s", text)
	}
	if !strings.Contains(text, "Variable 'score' has not been created yet.") {
		t.Fatalf("message missing:\n%s", text)
	}
	if !strings.Contains(text, "Hint: Did you mean 'scores'?") {
		t.Fatalf("hint missing:\n%s", text)
	}
}

func Test_Errors_Format_NoLocation(t *testing.T) {
	err := &StepsError{Code: E001, Message: "No .building file found in project directory."}
	text := err.Format()
	if !strings.HasPrefix(text, "Error E001:") {
		t.Fatalf("header wrong:\n%s", text)
	}
	if strings.Contains(text, "at line") {
		t.Fatalf("no location expected:\n%s", text)
	}
}

func Test_Errors_Format_ContextCaret(t *testing.T) {
	err := &StepsError{
		Code:         E207,
		Message:      "Unexpected token.",
		File:         "a.step",
		Line:         2,
		Column:       5,
		ContextLines: []string{"step: a", "    set x to", "    display x"},
	}
	text := err.Format()

	if !strings.Contains(text, ">>>    2 |     set x to") {
		t.Fatalf("context marker missing:\n%s", text)
	}
	if !strings.Contains(text, "\n"+strings.Repeat(" ", 16)+"^") {
		t.Fatalf("caret misplaced:\n%s", text)
	}
}

func Test_Errors_RecoverableKinds(t *testing.T) {
	recoverables := []error{
		&RuntimeError{},
		&TypeError{},
	}
	for _, err := range recoverables {
		if _, ok := err.(recoverable); !ok {
			t.Fatalf("%T should be recoverable by attempt blocks", err)
		}
	}

	unrecoverables := []error{
		&StepsError{},
		&LexerError{},
		&ParseError{},
		&StructureError{},
	}
	for _, err := range unrecoverables {
		if _, ok := err.(recoverable); ok {
			t.Fatalf("%T must not be recoverable by attempt blocks", err)
		}
	}
}

func Test_Errors_StructureErrorTemplates(t *testing.T) {
	e2 := structureError(E002, SourceLocation{}, "floor_name", "kitchen")
	if !strings.Contains(e2.Message, "'kitchen/'") {
		t.Fatalf("E002 message %q", e2.Message)
	}

	e3 := structureError(E003, SourceLocation{},
		"expected_floor", "bakery",
		"actual_floor", "kitchen")
	if !strings.Contains(e3.Message, "bakery") || !strings.Contains(e3.Message, "kitchen") {
		t.Fatalf("E003 message %q", e3.Message)
	}

	e4 := structureError(E004, SourceLocation{}, "step_name", "bake")
	if !strings.Contains(e4.Message, "bake") {
		t.Fatalf("E004 message %q", e4.Message)
	}
}
