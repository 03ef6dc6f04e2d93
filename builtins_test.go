// builtins_test.go
package steps

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func Test_Builtins_FileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	wantOutput(t, fmt.Sprintf(`building: files
    call write_file with "%s", "hello"
    call append_file with "%s", " world"
    call read_file with "%s" storing result in content
    display content
`, path, path, path), "hello world")
}

func Test_Builtins_FileExists(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.txt")
	if err := os.WriteFile(present, []byte("x"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	missing := filepath.Join(dir, "missing.txt")

	wantOutput(t, fmt.Sprintf(`building: files
    call file_exists with "%s" storing result in a
    call file_exists with "%s" storing result in b
    display a
    display b
`, present, missing), "true", "false")
}

func Test_Builtins_ReadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.txt")
	result := run(t, fmt.Sprintf(`building: files
    call read_file with "%s"
`, path))
	re, ok := result.Err.(*RuntimeError)
	if !ok {
		t.Fatalf("expected a runtime error, got %T: %v", result.Err, result.Err)
	}
	if re.Message != "File not found: '"+path+"'" {
		t.Fatalf("got message %q", re.Message)
	}
}

func Test_Builtins_ReadFile_RecoverableByAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.txt")
	wantOutput(t, fmt.Sprintf(`building: files
    attempt:
        call read_file with "%s"
    if unsuccessful:
        display "no such file"
`, path), "no such file")
}

func Test_Builtins_CSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	if err := os.WriteFile(path, []byte("name,age\nJo,30\nSam,25\n"), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	out := filepath.Join(t.TempDir(), "copy.csv")
	wantOutput(t, fmt.Sprintf(`building: csv
    call read_csv with "%s" storing result in rows
    display length of rows
    repeat for each row in rows
        display row["name"]
    call write_csv with "%s", rows
`, path, out), "2", "Jo", "Sam")

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("written csv: %v", err)
	}
	if string(data) != "name,age\nJo,30\nSam,25\n" {
		t.Fatalf("written csv content:\n%s", data)
	}
}

func Test_Builtins_RandomInt_Range(t *testing.T) {
	for i := 0; i < 20; i++ {
		result := run(t, `building: rand
    call random_int with 1, 6 storing result in roll
    display roll
`)
		if result.Err != nil {
			t.Fatalf("run error: %v", result.Err)
		}
		n, err := strconv.Atoi(result.OutputLines[0])
		if err != nil || n < 1 || n > 6 {
			t.Fatalf("roll %q out of range", result.OutputLines[0])
		}
	}
}

func Test_Builtins_RandomInt_BadRange(t *testing.T) {
	result := run(t, `building: rand
    call random_int with 6, 1
`)
	if _, ok := result.Err.(*RuntimeError); !ok {
		t.Fatalf("expected a runtime error, got %T: %v", result.Err, result.Err)
	}
}

func Test_Builtins_RandomChoice(t *testing.T) {
	result := run(t, `building: rand
    call random_choice with ["only"] storing result in pick
    display pick
`)
	if result.Err != nil {
		t.Fatalf("run error: %v", result.Err)
	}
	if result.OutputLines[0] != "only" {
		t.Fatalf("got %q", result.OutputLines[0])
	}
}

func Test_Builtins_RandomChoice_EmptyList(t *testing.T) {
	result := run(t, `building: rand
    call random_choice with []
`)
	if _, ok := result.Err.(*RuntimeError); !ok {
		t.Fatalf("expected a runtime error, got %T: %v", result.Err, result.Err)
	}
}

func Test_Builtins_UserStepShadowsNative(t *testing.T) {
	// A user-defined step with a native's name wins.
	result := runWithSteps(t, `building: main
    call random_int with 1, 6 storing result in n
    display n
`, `step: random_int
    expects: lo as number, hi as number
    returns: result as number
    do:
        return lo + hi
`)
	if result.Err != nil {
		t.Fatalf("run error: %v", result.Err)
	}
	if result.OutputLines[0] != "7" {
		t.Fatalf("got %q", result.OutputLines[0])
	}
}
